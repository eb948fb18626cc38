package core

import (
	"encoding/json"
	"testing"
)

func TestMoneyPercent(t *testing.T) {
	cases := []struct {
		cents int64
		rate  float64
		want  int64
	}{
		{500000, 2, 10000},
		{10000, 3.5, 350},
		{333, 1, 3},  // 3.33 rounds down
		{350, 1, 4},  // 3.5 rounds half away from zero
		{0, 10, 0},
	}
	for _, tc := range cases {
		got := NewMoney(tc.cents).Percent(tc.rate)
		if got.Cents != tc.want {
			t.Fatalf("%d at %v%% = %d, want %d", tc.cents, tc.rate, got.Cents, tc.want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(NewMoney(12345))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "12345" {
		t.Fatalf("marshal = %s, want bare integer", data)
	}
	var m Money
	if err := json.Unmarshal([]byte("-200"), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Cents != -200 {
		t.Fatalf("unmarshal = %d, want -200", m.Cents)
	}
}
