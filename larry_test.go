package larry_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/dschultz0/larry"
)

func TestSetSessionWithConfig(t *testing.T) {
	larry.SetSession(larry.WithConfig(aws.Config{Region: "us-west-2"}))

	cfg, err := larry.Session(context.Background())
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if cfg.Region != "us-west-2" {
		t.Errorf("region = %q, want us-west-2", cfg.Region)
	}

	// Replacing the session takes effect on the next call.
	larry.SetSession(larry.WithConfig(aws.Config{Region: "eu-central-1"}))
	cfg, err = larry.Session(context.Background())
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if cfg.Region != "eu-central-1" {
		t.Errorf("region after SetSession = %q, want eu-central-1", cfg.Region)
	}
}
