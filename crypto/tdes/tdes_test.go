package tdes

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestEncryptDecryptBlockRoundTrip(t *testing.T) {
	key, _ := hex.DecodeString("e0f4543f3e2a2c5ffc7e5e5a222e3e4d")
	block, _ := hex.DecodeString("0102030405060708")

	enc, err := EncryptBlock(key, block)
	if err != nil {
		t.Fatalf("EncryptBlock: %v", err)
	}
	dec, err := DecryptBlock(key, enc)
	if err != nil {
		t.Fatalf("DecryptBlock: %v", err)
	}
	if !bytes.Equal(dec, block) {
		t.Fatalf("round trip = %x, want %x", dec, block)
	}
}

func TestEncryptCBCChaining(t *testing.T) {
	key, _ := hex.DecodeString("e0f4543f3e2a2c5ffc7e5e5a222e3e4d")
	iv := make([]byte, 8)
	data, _ := hex.DecodeString("0102030405060708" + "0102030405060708")

	cipher, err := EncryptCBC(key, iv, data)
	if err != nil {
		t.Fatalf("EncryptCBC: %v", err)
	}
	if len(cipher) != 16 {
		t.Fatalf("ciphertext length = %d, want 16", len(cipher))
	}
	block1, err := EncryptBlock(key, data[:8])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(cipher[:8], block1) {
		t.Fatal("first CBC block must equal ECB of the first plaintext block under a zero IV")
	}
}

func TestExpand2KeyRejectsWrongLength(t *testing.T) {
	if _, err := Expand2Key(make([]byte, 8)); err == nil {
		t.Fatal("expected an error for a non-16-byte key")
	}
}
