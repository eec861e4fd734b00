// Package s3 reads and writes typed values in Amazon S3 buckets.
//
// Objects are addressed by a Location, built either from a bucket/key pair
// or an s3:// URI:
//
//	value, err := client.ReadJSON(ctx, s3.URI("s3://my-bucket/data/config.json"), &cfg)
//	err = client.WriteLines(ctx, s3.At("my-bucket", "out/names.txt"), names)
//
// The typed read and write helpers convert between Go values and object
// bytes using the codecs in the codec package; the format is usually
// inferred from the key's suffix. Write defaults the stored content type
// from the key as well, so a .csv key lands as text/csv without extra
// options.
//
// A Client wraps an API implementation, normally the AWS SDK's s3.Client.
// Default returns a shared client bound to the process session configured
// through the root package.
package s3
