package kvstore

// NewFakeS3Store returns an S3Store backed by an in-memory bucket.
func NewFakeS3Store() *S3Store {
	fake := newFakeS3()
	return newS3Store(fake, fake, "test-bucket", "flexipdf")
}
