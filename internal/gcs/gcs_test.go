package gcs

import "testing"

func TestSplitURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://raw/atm/file.jsonl", "raw", "atm/file.jsonl", false},
		{"gs://raw/file.csv", "raw", "file.csv", false},
		{"gs://raw", "", "", true},
		{"gs://raw/", "", "", true},
		{"https://example.com/file", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := SplitURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("SplitURI(%q) = %q, %q; want %q, %q", tt.uri, bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}
