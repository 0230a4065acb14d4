package domain

// Collection names shared by every document store driver.
const (
	FoundItemsCollection = "found_items"
	LostAlertsCollection = "lost_alerts"
	MailCollection       = "mail"
)
