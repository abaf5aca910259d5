package checksum

import "testing"

func TestCalculateCheckSum(t *testing.T) {
	// standard CRC-32 check value
	if got := CalculateCheckSum([]byte("123456789")); got != 0xCBF43926 {
		t.Errorf("expected 0xCBF43926, got %#x", got)
	}
	if got := CalculateCheckSum(nil); got != 0 {
		t.Errorf("expected 0, got %#x", got)
	}
}
