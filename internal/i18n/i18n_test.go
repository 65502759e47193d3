package i18n

import "testing"

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
		want   string
	}{
		{"cookie wins", "es", "en-US,en;q=0.9", "es"},
		{"invalid cookie falls to header", "zz-!!", "es-MX,es;q=0.9", "es"},
		{"header negotiation", "", "es-419,es;q=0.8,en;q=0.5", "es"},
		{"regional variant maps to base", "", "en-GB", "en"},
		{"unsupported falls back", "", "fr-FR,fr;q=0.9", "en"},
		{"empty falls back", "", "", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Negotiate(tt.cookie, tt.header); got != tt.want {
				t.Errorf("Negotiate(%q, %q) = %q, want %q", tt.cookie, tt.header, got, tt.want)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	if !IsSupported("en") || !IsSupported("es") {
		t.Error("en and es should be supported")
	}
	if IsSupported("fr") || IsSupported("EN") {
		t.Error("fr and EN should not be supported")
	}
}

func TestChatErrorMessageFallsBack(t *testing.T) {
	if got := ChatErrorMessage("es"); got != "Error al obtener respuesta." {
		t.Errorf("es message = %q", got)
	}
	if got := ChatErrorMessage("fr"); got != "Error getting response." {
		t.Errorf("unknown language should fall back to en, got %q", got)
	}
}
