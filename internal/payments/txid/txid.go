// Package txid owns the gateway-facing transaction id namespace. Ids carry
// the tenant prefix so webhook traffic for other apps sharing the gateway
// account can be recognized and skipped.
package txid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

const bulkMarker = "BULK"

// Kind classifies a transaction reference.
type Kind int

const (
	// KindForeign is a reference outside this service's prefix namespace.
	KindForeign Kind = iota
	// KindSingle wraps exactly one order id.
	KindSingle
	// KindBulk covers several orders under one disambiguated reference.
	KindBulk
)

// Ref is a parsed transaction reference.
type Ref struct {
	Kind    Kind
	OrderID uuid.UUID // set for KindSingle
	Count   int       // set for KindBulk
}

// Builder mints transaction ids under a fixed prefix. Bulk ids embed a
// snowflake so two charge attempts for the same order set never collide.
type Builder struct {
	prefix string
	node   *snowflake.Node
}

// NewBuilder validates the prefix and initializes the snowflake node.
func NewBuilder(prefix string, nodeID int64) (*Builder, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("transaction prefix is required")
	}
	if strings.Contains(prefix, "-") {
		return nil, fmt.Errorf("transaction prefix %q must not contain %q", prefix, "-")
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("initializing snowflake node: %w", err)
	}
	return &Builder{prefix: prefix, node: node}, nil
}

// Prefix returns the configured tenant prefix.
func (b *Builder) Prefix() string {
	return b.prefix
}

// Single returns the reference for a one-order charge: <PREFIX>-<order-id>.
func (b *Builder) Single(orderID uuid.UUID) string {
	return fmt.Sprintf("%s-%s", b.prefix, orderID)
}

// Bulk returns a fresh reference for a multi-order charge:
// <PREFIX>-BULK-<snowflake>-<count>.
func (b *Builder) Bulk(count int) string {
	return fmt.Sprintf("%s-%s-%d-%d", b.prefix, bulkMarker, b.node.Generate().Int64(), count)
}

// Parse classifies a reference received from the gateway. Anything that does
// not carry this builder's prefix is foreign; malformed ids under the prefix
// are foreign too rather than an error, since the webhook path must stay soft.
func (b *Builder) Parse(ref string) Ref {
	rest, ok := strings.CutPrefix(ref, b.prefix+"-")
	if !ok || rest == "" {
		return Ref{Kind: KindForeign}
	}

	if tail, ok := strings.CutPrefix(rest, bulkMarker+"-"); ok {
		parts := strings.Split(tail, "-")
		if len(parts) != 2 {
			return Ref{Kind: KindForeign}
		}
		if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
			return Ref{Kind: KindForeign}
		}
		count, err := strconv.Atoi(parts[1])
		if err != nil || count <= 0 {
			return Ref{Kind: KindForeign}
		}
		return Ref{Kind: KindBulk, Count: count}
	}

	orderID, err := uuid.Parse(rest)
	if err != nil {
		return Ref{Kind: KindForeign}
	}
	return Ref{Kind: KindSingle, OrderID: orderID}
}
