package common

const (
	PaymentMethodLightning = "lightning"
	PaymentMethodCashu     = "cashu"

	InvoiceStateOpen    = "open"
	InvoiceStateSettled = "settled"
	InvoiceStateExpired = "expired"
	InvoiceStateAborted = "aborted"

	SessionStateAwaitingPayment = "awaiting_payment"
	SessionStateSettled         = "settled"
	SessionStateExpired         = "expired"
	SessionStateAborted         = "aborted"

	TierSpark        = "spark"
	TierTomb         = "tomb"
	TierCrypt        = "crypt"
	TierResurrection = "resurrection"
	TierEternal      = "eternal"

	SoulTopicSettled = "soul_settled"
)
