package photo

import "time"

// Record is one entry in an identity's photo sub-collection: metadata for a
// single uploaded object, keyed by {owner id, object key}.
type Record struct {
	PK string `dynamodbav:"PK"` // USER#<owner id>
	SK string `dynamodbav:"SK"` // PHOTO#<object key>

	OwnerID     string    `dynamodbav:"owner_id"`
	ObjectKey   string    `dynamodbav:"object_key"`
	Filename    string    `dynamodbav:"filename"`
	ContentType string    `dynamodbav:"content_type"`
	SizeBytes   int64     `dynamodbav:"size_bytes"`
	UploadedAt  time.Time `dynamodbav:"uploaded_at"`
}

// MakeKeys constructs the partition and sort keys for a record.
func MakeKeys(ownerID, objectKey string) (pk, sk string) {
	return "USER#" + ownerID, "PHOTO#" + objectKey
}
