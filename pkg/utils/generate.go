package utils

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// ==================== SESSION TOKEN ====================

func GenerateSessionToken() uuid.UUID {
	return uuid.New()
}

// ==================== ORDER & TICKET CODES ====================

func shortHex(n int) string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:n])
}

// GenerateOrderCode, format: ORD-XXXXXXXX
func GenerateOrderCode() string {
	return "ORD-" + shortHex(8)
}

// GenerateTicketCode, format: TKT-XXXXXXXXXX
func GenerateTicketCode() string {
	return "TKT-" + shortHex(10)
}

// ==================== TRANSACTION REFERENCES ====================

// RefGenerator issues unique, time-ordered references for gateway requests.
type RefGenerator struct {
	node *snowflake.Node
}

func NewRefGenerator(nodeID int64) (*RefGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &RefGenerator{node: node}, nil
}

// Next returns a bare numeric reference.
func (g *RefGenerator) Next() string {
	return g.node.Generate().String()
}

// NextTxn returns a provisional payment transaction reference, format: TXN-<snowflake>
func (g *RefGenerator) NextTxn() string {
	return "TXN-" + g.Next()
}
