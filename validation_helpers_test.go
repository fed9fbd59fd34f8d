package pbemarker

import (
	"testing"
)

func TestValidateAlgorithmName(t *testing.T) {
	tests := []struct {
		name      string
		algorithm string
		wantErr   bool
	}{
		{"valid", PBEWithMD5AndDES, false},
		{"upper case", "PBEWITHHMACSHA512ANDAES_256", false},
		{"not a pbe name", "AES", false},
		{"empty", "", true},
		{"leading space", " PBEWithMD5AndDES", true},
		{"trailing newline", "PBEWithMD5AndDES\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAlgorithmName(tt.algorithm)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAlgorithmName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("ValidateAlgorithmName() should return ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateIterations(t *testing.T) {
	tests := []struct {
		name       string
		iterations int
		wantErr    bool
	}{
		{"zero", 0, true},
		{"negative", -1000, true},
		{"one", 1, false},
		{"default", DefaultIterations, false},
		{"maximum", maxIterations, false},
		{"above maximum", maxIterations + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIterations(tt.iterations)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIterations() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("ValidateIterations() should return ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name         string
		key          []byte
		expectedSize int
		wantErr      bool
	}{
		{"nil key", nil, 32, true},
		{"des key", make([]byte, 8), 8, false},
		{"wrong size", make([]byte, 16), 24, true},
		{"empty key", []byte{}, 32, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key, tt.expectedSize)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("ValidateKey() should return ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateIV(t *testing.T) {
	tests := []struct {
		name         string
		iv           []byte
		expectedSize int
		wantErr      bool
	}{
		{"cbc iv", make([]byte, 16), 16, false},
		{"gcm nonce", make([]byte, 12), 12, false},
		{"stream cipher", nil, 0, false},
		{"nil for block cipher", nil, 8, true},
		{"too long", make([]byte, 16), 8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIV(tt.iv, tt.expectedSize)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("ValidateIV() should return ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"empty path", "", true},
		{"absolute path", "/conf/app.yaml", false},
		{"relative path", "app.properties", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("ValidateFilePath() should return ValidationError, got %T", err)
			}
		})
	}
}
