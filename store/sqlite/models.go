package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/nftledger/approval"
	"github.com/xraph/nftledger/event"
	"github.com/xraph/nftledger/id"
	"github.com/xraph/nftledger/token"
	"github.com/xraph/nftledger/types"
)

// The collection table is a singleton; every row operation pins this key.
const collectionRowID = 1

// ==================== Collection models ====================

type collectionModel struct {
	grove.BaseModel `grove:"table:nft_collection"`

	ID          int       `grove:"id,pk"`
	Name        string    `grove:"name"`
	Symbol      string    `grove:"symbol"`
	MaxSupply   uint64    `grove:"max_supply"`
	TotalSupply uint64    `grove:"total_supply"`
	Admin       string    `grove:"admin"`
	MintPaused  bool      `grove:"mint_paused"`
	BaseURI     string    `grove:"base_uri"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toCollectionModel(c *token.Collection) *collectionModel {
	return &collectionModel{
		ID:          collectionRowID,
		Name:        c.Name,
		Symbol:      c.Symbol,
		MaxSupply:   c.MaxSupply,
		TotalSupply: c.TotalSupply,
		Admin:       c.Admin.String(),
		MintPaused:  c.MintPaused,
		BaseURI:     c.BaseURI,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func fromCollectionModel(m *collectionModel) (*token.Collection, error) {
	admin, err := parsePrincipal(m.Admin)
	if err != nil {
		return nil, err
	}

	return &token.Collection{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Name:        m.Name,
		Symbol:      m.Symbol,
		MaxSupply:   m.MaxSupply,
		TotalSupply: m.TotalSupply,
		Admin:       admin,
		MintPaused:  m.MintPaused,
		BaseURI:     m.BaseURI,
	}, nil
}

// ==================== Token models ====================

type tokenModel struct {
	grove.BaseModel `grove:"table:nft_tokens"`

	ID          uint64    `grove:"id,pk"`
	Owner       string    `grove:"owner"`
	Approved    string    `grove:"approved"`
	URIOverride string    `grove:"uri_override"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toTokenModel(t *token.Token) *tokenModel {
	return &tokenModel{
		ID:          t.ID,
		Owner:       t.Owner.String(),
		Approved:    principalString(t.Approved),
		URIOverride: t.URIOverride,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func fromTokenModel(m *tokenModel) (*token.Token, error) {
	owner, err := parsePrincipal(m.Owner)
	if err != nil {
		return nil, err
	}
	approved, err := parsePrincipal(m.Approved)
	if err != nil {
		return nil, err
	}

	return &token.Token{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          m.ID,
		Owner:       owner,
		Approved:    approved,
		URIOverride: m.URIOverride,
	}, nil
}

// ==================== Operator approval models ====================

type operatorApprovalModel struct {
	grove.BaseModel `grove:"table:nft_operator_approvals"`

	Owner     string    `grove:"owner,pk"`
	Operator  string    `grove:"operator,pk"`
	Approved  bool      `grove:"approved"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func fromOperatorApprovalModel(m *operatorApprovalModel) (*approval.OperatorApproval, error) {
	owner, err := parsePrincipal(m.Owner)
	if err != nil {
		return nil, err
	}
	operator, err := parsePrincipal(m.Operator)
	if err != nil {
		return nil, err
	}

	return &approval.OperatorApproval{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Owner:    owner,
		Operator: operator,
		Approved: m.Approved,
	}, nil
}

// ==================== Event models ====================

type eventModel struct {
	grove.BaseModel `grove:"table:nft_events"`

	ID        string    `grove:"id,pk"`
	Type      string    `grove:"type"`
	Sequence  uint64    `grove:"sequence"`
	TokenID   uint64    `grove:"token_id"`
	From      string    `grove:"from_principal"`
	To        string    `grove:"to_principal"`
	Operator  string    `grove:"operator"`
	Approved  bool      `grove:"approved"`
	URI       string    `grove:"uri"`
	Data      []byte    `grove:"data"`
	Timestamp time.Time `grove:"timestamp"`
}

func toEventModel(e *event.Event) *eventModel {
	return &eventModel{
		ID:        e.ID.String(),
		Type:      string(e.Type),
		Sequence:  e.Sequence,
		TokenID:   e.TokenID,
		From:      principalString(e.From),
		To:        principalString(e.To),
		Operator:  principalString(e.Operator),
		Approved:  e.Approved,
		URI:       e.URI,
		Data:      e.Data,
		Timestamp: e.Timestamp,
	}
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	eventID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}
	from, err := parsePrincipal(m.From)
	if err != nil {
		return nil, err
	}
	to, err := parsePrincipal(m.To)
	if err != nil {
		return nil, err
	}
	operator, err := parsePrincipal(m.Operator)
	if err != nil {
		return nil, err
	}

	return &event.Event{
		ID:        eventID,
		Type:      event.Type(m.Type),
		Sequence:  m.Sequence,
		TokenID:   m.TokenID,
		From:      from,
		To:        to,
		Operator:  operator,
		Approved:  m.Approved,
		URI:       m.URI,
		Data:      m.Data,
		Timestamp: m.Timestamp,
	}, nil
}

// ==================== Helpers ====================

// principalString maps the null principal to the empty string for storage.
func principalString(p id.Principal) string {
	if p.IsNil() {
		return ""
	}
	return p.String()
}

// parsePrincipal is the inverse of principalString.
func parsePrincipal(s string) (id.Principal, error) {
	if s == "" {
		return id.Nil, nil
	}
	return id.ParsePrincipal(s)
}
