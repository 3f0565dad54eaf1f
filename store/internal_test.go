package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// --- Config Tests ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   int32
		want int32
	}{
		{"zero", 0, 100},
		{"negative", -5, 100},
		{"in range", 250, 250},
		{"too large", 5000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{ScanPageSize: tt.in}
			c.validate()
			if c.ScanPageSize != tt.want {
				t.Errorf("expected %d, got %d", tt.want, c.ScanPageSize)
			}
		})
	}
}

func TestLoadClient_Local(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")

	client, err := LoadClient(context.Background(), ClientConfig{Region: LocalRegion})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opts := client.Options()
	if aws.ToString(opts.BaseEndpoint) != LocalEndpoint {
		t.Errorf("expected endpoint %s, got %q", LocalEndpoint, aws.ToString(opts.BaseEndpoint))
	}
	if opts.Region != "us-east-1" {
		t.Errorf("expected placeholder region, got %q", opts.Region)
	}
	creds, err := opts.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "local" {
		t.Errorf("expected static local credentials, got %q", creds.AccessKeyID)
	}
}

func TestLoadClient_EndpointOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")

	client, err := LoadClient(context.Background(), ClientConfig{
		Region:   "eu-west-1",
		Endpoint: "http://dynamo.test:4566",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts := client.Options()
	if opts.Region != "eu-west-1" {
		t.Errorf("expected eu-west-1, got %q", opts.Region)
	}
	if aws.ToString(opts.BaseEndpoint) != "http://dynamo.test:4566" {
		t.Errorf("unexpected endpoint %q", aws.ToString(opts.BaseEndpoint))
	}
}

// --- fingerprint Tests ---

func TestFingerprint_IgnoresAttributeOrder(t *testing.T) {
	a := types.WriteRequest{PutRequest: &types.PutRequest{Item: map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: "x"},
		"m": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"b": &types.AttributeValueMemberN{Value: "1"},
			"a": &types.AttributeValueMemberN{Value: "2"},
		}},
		"ns": &types.AttributeValueMemberNS{Value: []string{"10", "9"}},
	}}}
	b := types.WriteRequest{PutRequest: &types.PutRequest{Item: map[string]types.AttributeValue{
		"ns": &types.AttributeValueMemberNS{Value: []string{"9", "10"}},
		"m": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"a": &types.AttributeValueMemberN{Value: "2"},
			"b": &types.AttributeValueMemberN{Value: "1"},
		}},
		"pk": &types.AttributeValueMemberS{Value: "x"},
	}}}

	fa, err := fingerprint("T", a)
	if err != nil {
		t.Fatalf("fingerprint a: %v", err)
	}
	fb, err := fingerprint("T", b)
	if err != nil {
		t.Fatalf("fingerprint b: %v", err)
	}
	if fa != fb {
		t.Errorf("expected equal fingerprints:\n%s\n%s", fa, fb)
	}
}

func TestFingerprint_Distinguishes(t *testing.T) {
	item := map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: "x"}}
	put := types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}
	del := types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: item}}

	fp1, _ := fingerprint("T", put)
	fp2, _ := fingerprint("T", del)
	fp3, _ := fingerprint("U", put)
	if fp1 == fp2 || fp1 == fp3 || fp2 == fp3 {
		t.Error("expected table and op to be part of the fingerprint")
	}

	if _, err := fingerprint("T", types.WriteRequest{}); err == nil {
		t.Error("expected error for an empty write request")
	}
}
