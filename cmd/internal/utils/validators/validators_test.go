package validators

import "testing"

type passwordRequest struct {
	Password string `json:"password" validate:"required,min=8,hasupper,haslower,hasdigit,hasspecial,nospaces"`
}

type timeRequest struct {
	At string `json:"at" validate:"omitempty,iso8601"`
}

func TestPasswordRules(t *testing.T) {
	validate := New()
	tests := []struct {
		password string
		ok       bool
	}{
		{"Str0ng!pass", true},
		{"weak", false},
		{"alllower1!", false},
		{"ALLUPPER1!", false},
		{"NoDigits!!", false},
		{"NoSpecial1", false},
		{"Has Space1!", false},
	}
	for _, tt := range tests {
		err := validate.Struct(&passwordRequest{Password: tt.password})
		if (err == nil) != tt.ok {
			t.Errorf("%q: ok=%v, err=%v", tt.password, tt.ok, err)
		}
	}
}

func TestIso8601(t *testing.T) {
	validate := New()
	for _, in := range []string{"", "2030-01-02T10:00:00Z", "2030-01-02T10:00:00.5+02:00"} {
		if err := validate.Struct(&timeRequest{At: in}); err != nil {
			t.Errorf("%q rejected: %v", in, err)
		}
	}
	for _, in := range []string{"2030-01-02", "10:00", "tomorrow"} {
		if err := validate.Struct(&timeRequest{At: in}); err == nil {
			t.Errorf("%q accepted", in)
		}
	}
}

type enumRequest struct {
	Role   string `json:"role" validate:"required,userrole"`
	Status string `json:"status" validate:"omitempty,schedulestatus"`
	Block  string `json:"block" validate:"omitempty,timeblock"`
}

func TestEnumRules(t *testing.T) {
	validate := New()
	tests := []struct {
		name string
		req  enumRequest
		ok   bool
	}{
		{"known values", enumRequest{Role: "Professional", Status: "Booked", Block: "Night"}, true},
		{"optional left out", enumRequest{Role: "Admin"}, true},
		{"unknown role", enumRequest{Role: "Owner"}, false},
		{"case matters", enumRequest{Role: "client"}, false},
		{"unknown status", enumRequest{Role: "Client", Status: "Open"}, false},
		{"unknown block", enumRequest{Role: "Client", Block: "Noon"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(&tt.req)
			if (err == nil) != tt.ok {
				t.Fatalf("ok=%v, err=%v", tt.ok, err)
			}
		})
	}
}
