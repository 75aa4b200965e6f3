// Package source loads HTML documents and definition manifests from the
// local filesystem or from S3.
//
//	loader := source.New(source.WithS3Client(source.NewS3Client(cfg.S3)))
//	data, err := loader.Read(ctx, "s3://assets/elements.yaml")
package source
