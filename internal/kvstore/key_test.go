package kvstore

import "testing"

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"pdfFiles_v1", false},
		{"currentFolderId_v1", false},
		{"schemaVersion", false},
		{"a.b-c", false},
		{"_private", false},
		{"", true},
		{".hidden", true},
		{"../escape", true},
		{"a/b", true},
		{"with space", true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}
