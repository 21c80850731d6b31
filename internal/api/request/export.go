package request

// Export writes the current export document to a file path, an S3 key, or
// both.
type Export struct {
	Path  string `json:"path" validate:"required_without=S3Key"`
	S3Key string `json:"s3_key" validate:"required_without=Path"`
}
