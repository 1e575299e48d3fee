package aggregate

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"globaltrust/internal/platform/tracer"
	"globaltrust/internal/services"
)

// NFTMetadata describes the real-world asset behind a minted token.
type NFTMetadata struct {
	IPFSCID          string   `json:"ipfs_cid"`
	RWAType          string   `json:"rwa_type"`
	SubmissionID     string   `json:"submission_id"`
	AttestationIDs   []string `json:"attestation_ids"`
	VerificationHash string   `json:"verification_hash"`
	LienActive       bool     `json:"lien_active"`
	Collateralized   bool     `json:"collateralized"`
	Frozen           bool     `json:"frozen"`
}

// Token joins the ledger reads of one asset token. The certificate is
// passed through as the service returns it.
type Token struct {
	ID          uint64
	Owner       Section[string]
	Metadata    Section[NFTMetadata]
	Certificate Section[json.RawMessage]
}

// TokenLookup reads the owner, metadata and certified metadata of token id
// concurrently. Like DashboardSummary it fails only when set holds no handles.
func (a *Aggregator) TokenLookup(ctx context.Context, set *services.Set, id uint64) (*Token, error) {
	if set.Empty() {
		return nil, services.ErrNotSignedIn
	}

	ctx, span := a.tracer.Start(ctx, tracer.SpanTokenLookup,
		tracer.Int64(tracer.AttrTokenID, int64(id)),
	)
	t := &Token{ID: id}

	var g errgroup.Group
	g.Go(func() error {
		t.Owner = tokenRead[string](ctx, a, set, "icrc7_owner_of", id)
		return nil
	})
	g.Go(func() error {
		t.Metadata = tokenRead[NFTMetadata](ctx, a, set, "icrc7_token_metadata", id)
		return nil
	})
	g.Go(func() error {
		t.Certificate = tokenRead[json.RawMessage](ctx, a, set, "getCertifiedMetadata", id)
		return nil
	})
	_ = g.Wait()

	span.SetAttributes(
		tracer.String("section.owner", string(t.Owner.Status)),
		tracer.String("section.metadata", string(t.Metadata.Status)),
		tracer.String("section.certificate", string(t.Certificate.Status)),
	)
	span.End(nil)
	return t, nil
}

func tokenRead[T any](ctx context.Context, a *Aggregator, set *services.Set, method string, id uint64) Section[T] {
	sec := readSection[T](ctx, set, services.Assets, method, false, id)
	if sec.Status == StatusUnavailable {
		a.logFailure(ctx, "token read unavailable", services.Assets, method, sec.Err)
	}
	return sec
}
