package storage

import (
	"errors"
	"testing"
)

func TestRecordSizes(t *testing.T) {
	tests := []struct {
		name string
		rec  interface{ MarshalBinary() ([]byte, error) }
		want int
	}{
		{"admin settings", &AdminSettings{}, 41},
		{"supported asset", &SupportedAsset{}, 33},
		{"vault", &Vault{}, 121},
		{"account", &Account{}, 104},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.rec.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary failed: %v", err)
			}
			if len(data) != tt.want {
				t.Errorf("got %d bytes, want %d", len(data), tt.want)
			}
		})
	}
}

func TestVaultLayout(t *testing.T) {
	v := Vault{
		Owner:        newID(t),
		AssetID:      newID(t),
		LockStart:    1000,
		LockEnd:      87400,
		LockedAmount: 150,
		Bump:         253,
	}
	v.CustodyAccount = newID(t)

	data, _ := v.MarshalBinary()
	if string(data[0:32]) != string(v.Owner[:]) || string(data[32:64]) != string(v.AssetID[:]) {
		t.Error("owner and asset must lead the record")
	}
	if le.Uint64(data[72:80]) != 87400 {
		t.Errorf("lock_end at wrong offset: %d", le.Uint64(data[72:80]))
	}
	if data[88] != 253 {
		t.Errorf("bump at wrong offset: %d", data[88])
	}

	var back Vault
	if err := back.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if back != v {
		t.Errorf("got %+v, want %+v", back, v)
	}
}

func TestUnmarshalRejectsWrongSize(t *testing.T) {
	var v Vault
	if err := v.UnmarshalBinary(make([]byte, VaultSize-1)); !errors.Is(err, ErrRecordSize) {
		t.Errorf("Expected ErrRecordSize, got %v", err)
	}
	var s AdminSettings
	if err := s.UnmarshalBinary(nil); !errors.Is(err, ErrRecordSize) {
		t.Errorf("Expected ErrRecordSize, got %v", err)
	}
}

func TestDormant(t *testing.T) {
	v := Vault{LockEnd: 5}
	if !v.Dormant() {
		t.Error("zero amount vault should be dormant regardless of lock_end")
	}
	v.LockedAmount = 1
	if v.Dormant() {
		t.Error("vault with funds should be active")
	}
}
