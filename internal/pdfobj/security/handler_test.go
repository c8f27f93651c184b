package security

import "testing"

var testFileID = []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF, 0xFE, 0xDC, 0xBA, 0x98, 0x76, 0x54, 0x32, 0x10}

// buildRC4Dict derives a self-consistent U value for userPassword under
// revision rev so Authenticate can be exercised without a real encrypted
// file fixture.
func buildRC4Dict(rev int, length int, userPassword []byte) *EncryptionDictionary {
	ed := &EncryptionDictionary{Filter: "Standard", V: 2, Length: length, R: rev, P: -44, EncryptMetadata: true}
	ed.O = make([]byte, 32) // owner auth isn't exercised by these cases; set before key derivation, which hashes O
	h := &Handler{encryptDict: ed, fileID: testFileID, revision: rev, keyLength: length}
	key := h.computeRC4Key(userPassword)
	ed.U = h.computeUserPassword(key)
	return ed
}

func TestNewHandlerDerivesKeyLength(t *testing.T) {
	tests := []struct {
		name        string
		encryptDict *EncryptionDictionary
		wantLength  int
	}{
		{"V=1 forces 40-bit", &EncryptionDictionary{V: 1, Length: 128}, 40},
		{"V=2 honors Length", &EncryptionDictionary{V: 2, Length: 128}, 128},
		{"missing Length defaults to 40", &EncryptionDictionary{V: 2}, 40},
		{"nil dictionary is unencrypted", nil, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.encryptDict, testFileID)
			if h.keyLength != tt.wantLength {
				t.Errorf("keyLength = %d, want %d", h.keyLength, tt.wantLength)
			}
			if h.IsAuthenticated() {
				t.Error("freshly built handler must not be authenticated")
			}
		})
	}
}

func TestIsEncrypted(t *testing.T) {
	if NewHandler(nil, testFileID).IsEncrypted() {
		t.Error("nil encryption dictionary must report unencrypted")
	}
	if !NewHandler(&EncryptionDictionary{V: 2}, testFileID).IsEncrypted() {
		t.Error("non-nil encryption dictionary must report encrypted")
	}
}

func TestAuthenticateRC4RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		revision int
	}{
		{"revision 2 (algorithm 4)", 2},
		{"revision 3 (algorithm 5)", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			password := []byte("correct horse")
			ed := buildRC4Dict(tt.revision, 40, password)
			h := NewHandler(ed, testFileID)

			if err := h.Authenticate(password); err != nil {
				t.Fatalf("Authenticate with correct password failed: %v", err)
			}
			if !h.IsAuthenticated() {
				t.Error("handler should be authenticated after a correct password")
			}
			if got := h.Permissions(); got.Modify || got.Annotate {
				t.Errorf("Permissions() = %+v, want the -44 bits we encoded", got)
			}
		})
	}
}

func TestAuthenticateRejectsWrongPassword(t *testing.T) {
	ed := buildRC4Dict(3, 40, []byte("correct horse"))
	h := NewHandler(ed, testFileID)

	if err := h.Authenticate([]byte("wrong password")); err == nil {
		t.Error("Authenticate should reject an incorrect password")
	}
	if h.IsAuthenticated() {
		t.Error("handler must stay unauthenticated after a failed attempt")
	}
}

func TestAuthenticateWithoutEncryptDict(t *testing.T) {
	h := NewHandler(nil, testFileID)
	if err := h.Authenticate([]byte("anything")); err == nil {
		t.Error("Authenticate on an unencrypted handler should fail")
	}
}

func TestDecryptObjectBeforeAuthenticate(t *testing.T) {
	ed := buildRC4Dict(3, 40, []byte("pw"))
	h := NewHandler(ed, testFileID)

	if _, err := h.DecryptObject(1, 0, []byte("ciphertext")); err == nil {
		t.Error("DecryptObject should refuse to run before authentication")
	}
}

func TestDecryptObjectRC4RoundTrip(t *testing.T) {
	password := []byte("pw")
	ed := buildRC4Dict(3, 40, password)
	h := NewHandler(ed, testFileID)
	if err := h.Authenticate(password); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	objKey := h.computeObjectKey(7, 0)
	plaintext := []byte("hello field")
	encrypted, err := h.decryptRC4(objKey, plaintext) // RC4 is its own inverse
	if err != nil {
		t.Fatalf("encrypt step failed: %v", err)
	}

	decrypted, err := h.DecryptObject(7, 0, encrypted)
	if err != nil {
		t.Fatalf("DecryptObject failed: %v", err)
	}
	if string(decrypted) != string(plaintext) {
		t.Errorf("DecryptObject round trip = %q, want %q", decrypted, plaintext)
	}
}

func TestRemovePKCS7Padding(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"valid single-byte padding", append([]byte("hello"), 0x01), "hello"},
		{"valid multi-byte padding", append([]byte("ab"), 0x02, 0x02), "ab"},
		{"invalid padding left as-is", []byte{0x01, 0x02, 0xFF}, string([]byte{0x01, 0x02, 0xFF})},
		{"empty input", []byte{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := removePKCS7Padding(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("removePKCS7Padding(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
