package storage

import "fmt"

const userKeyPrefix = "user:"

// RecordListKey is the key of a user's ordered record-key list.
func RecordListKey(userID string) string {
	return "records:" + userID
}

// LedgerKey is the key of the reminder ledger for one item and user.
func LedgerKey(itemID, userID string) string {
	return fmt.Sprintf("reminder:%s:%s", itemID, userID)
}

// WatermarkKey is the key of the new-content watermark for a user's course.
func WatermarkKey(userID, courseID string) string {
	return fmt.Sprintf("watermark:%s:%s", userID, courseID)
}

// UserKey is the key a registered user is stored under.
func UserKey(userID string) string {
	return userKeyPrefix + userID
}
