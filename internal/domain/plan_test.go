package domain

import (
	"testing"
	"time"
)

func TestNewPlanCatalog(t *testing.T) {
	tests := []struct {
		name    string
		plans   []Plan
		wantErr bool
	}{
		{name: "defaults", plans: DefaultPlans()},
		{name: "empty", plans: nil, wantErr: true},
		{name: "blank id", plans: []Plan{{DisplayName: "x", DurationDays: 1}}, wantErr: true},
		{name: "zero duration", plans: []Plan{{ID: "a", DisplayName: "x"}}, wantErr: true},
		{
			name:    "duplicate id",
			plans:   []Plan{{ID: "a", DisplayName: "x", DurationDays: 1}, {ID: "a", DisplayName: "y", DurationDays: 2}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlanCatalog(tt.plans)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPlanCatalog() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlanCatalog_LookupAndDefault(t *testing.T) {
	c, err := NewPlanCatalog(DefaultPlans())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Default().ID != "p1" {
		t.Errorf("expected default p1, got %s", c.Default().ID)
	}
	p, ok := c.Lookup("p3")
	if !ok || p.DurationDays != 365 {
		t.Errorf("expected p3 with 365 days, got %+v (found=%v)", p, ok)
	}
	if _, ok := c.Lookup("nope"); ok {
		t.Error("expected unknown plan lookup to fail")
	}

	all := c.All()
	all[0].ID = "mutated"
	if c.Default().ID != "p1" {
		t.Error("All() must return a copy")
	}
}

func TestPlan_ExpiryFrom(t *testing.T) {
	now := time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)
	got := Plan{DurationDays: 30}.ExpiryFrom(now)
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ExpiryFrom() = %v, want %v", got, want)
	}
}

func TestPaymentStatus(t *testing.T) {
	tests := []struct {
		status PaymentStatus
		valid  bool
		tone   string
		label  string
	}{
		{PaymentPaid, true, "success", "Em dia"},
		{PaymentWarning, true, "warning", "Aviso de Renovação"},
		{PaymentDue, true, "danger", "Vencido"},
		{PaymentStatus("other"), false, "neutral", "other"},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if tt.status.Valid() != tt.valid {
				t.Errorf("Valid() = %v, want %v", tt.status.Valid(), tt.valid)
			}
			if tt.status.Tone() != tt.tone {
				t.Errorf("Tone() = %s, want %s", tt.status.Tone(), tt.tone)
			}
			if tt.status.Label() != tt.label {
				t.Errorf("Label() = %s, want %s", tt.status.Label(), tt.label)
			}
		})
	}
}

func TestPhotoUpload_Extension(t *testing.T) {
	tests := map[string]string{
		"me.PNG":       "png",
		"archive.jpeg": "jpeg",
		"noext":        "jpg",
	}
	for name, want := range tests {
		p := PhotoUpload{FileName: name}
		if got := p.Extension(); got != want {
			t.Errorf("Extension(%q) = %q, want %q", name, got, want)
		}
	}
}
