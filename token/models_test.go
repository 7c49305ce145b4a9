package token

import (
	"testing"

	"github.com/xraph/nftledger/id"
)

func TestTokenURI(t *testing.T) {
	tests := []struct {
		name    string
		token   Token
		baseURI string
		wantURI string
		wantOK  bool
	}{
		{
			name:    "override wins over base",
			token:   Token{ID: 7, URIOverride: "ar://special"},
			baseURI: "ipfs://meta/",
			wantURI: "ar://special",
			wantOK:  true,
		},
		{
			name:    "base with decimal id",
			token:   Token{ID: 42},
			baseURI: "ipfs://meta/",
			wantURI: "ipfs://meta/42",
			wantOK:  true,
		},
		{
			name:    "token id zero",
			token:   Token{ID: 0},
			baseURI: "https://x/",
			wantURI: "https://x/0",
			wantOK:  true,
		},
		{
			name:   "nothing configured",
			token:  Token{ID: 1},
			wantOK: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uri, ok := tc.token.URI(tc.baseURI)
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v", tc.wantOK, ok)
			}
			if uri != tc.wantURI {
				t.Fatalf("expected %q, got %q", tc.wantURI, uri)
			}
		})
	}
}

func TestHasDelegate(t *testing.T) {
	tok := Token{ID: 1, Owner: id.NewPrincipal()}
	if tok.HasDelegate() {
		t.Fatal("fresh token must have no delegate")
	}

	tok.Approved = id.NewPrincipal()
	if !tok.HasDelegate() {
		t.Fatal("expected delegate set")
	}

	tok.Approved = id.Nil
	if tok.HasDelegate() {
		t.Fatal("expected delegate cleared")
	}
}
