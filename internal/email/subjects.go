package email

const (
	subjectQuoteConfirmation  = "We received your quote request"
	subjectQuoteApproved      = "Your BuildVive quote is ready"
	subjectQuoteInfoRequested = "We need a few more details about your project"
	subjectEscalationAlertFmt = "Chat escalation: session %s"
)
