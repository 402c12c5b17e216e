package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdanjohnson/handshake-ai/pkg/domain"
)

// NewOffer is a validated offer payload minus the server-assigned fields.
type NewOffer struct {
	Title          string
	Terms          string
	SpecificTerms  []domain.SpecificTerm
	PaymentAmount  string
	PaymentDueDate string
	PaymentMethod  string
	Duration       string
	Location       string
	OfferorName    string
	OfferorEmail   string
	Offerees       []domain.Party
	Draft          bool
}

// OfferStore is the only persistence boundary of the offers service.
// Absence is not an error: lookups return (nil, nil) for unknown IDs,
// since a bad link or typo is routine. Each mutation is a single atomic
// step; no partial write is ever observable. UpdateOfferStatus enforces
// terminal stickiness in the mutation itself: a write that would move an
// offer out of accepted or declined matches no row and returns (nil, nil),
// and acceptedAt is set exactly once. Callers re-read to tell a lost race
// from a missing offer.
type OfferStore interface {
	AddOffer(ctx context.Context, in NewOffer) (*domain.Offer, error)
	GetOfferByID(ctx context.Context, id string) (*domain.Offer, error)
	GetOffersByEmail(ctx context.Context, email string) ([]domain.Offer, error)
	UpdateOfferStatus(ctx context.Context, id string, status domain.Status) (*domain.Offer, error)
}

func newOfferID() string { return "off_" + uuid.NewString() }

func initialStatus(draft bool) domain.Status {
	if draft {
		return domain.StatusDraft
	}
	return domain.StatusPending
}

// Store is the postgres-backed OfferStore.
type Store struct{ DB *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

// EnsureSchema creates the offers table and the participant-email indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, `
CREATE TABLE IF NOT EXISTS offers (
	offer_id         text PRIMARY KEY,
	title            text NOT NULL,
	terms            text NOT NULL,
	specific_terms   jsonb NOT NULL DEFAULT '[]'::jsonb,
	payment_amount   text NOT NULL DEFAULT '',
	payment_due_date text NOT NULL DEFAULT '',
	payment_method   text NOT NULL DEFAULT '',
	duration         text NOT NULL DEFAULT '',
	location         text NOT NULL DEFAULT '',
	offeror_name     text NOT NULL,
	offeror_email    text NOT NULL,
	offerees         jsonb NOT NULL,
	status           text NOT NULL,
	created_at       timestamptz NOT NULL,
	accepted_at      timestamptz
)`)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `CREATE INDEX IF NOT EXISTS offers_offeror_email_idx ON offers (lower(offeror_email))`)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `CREATE INDEX IF NOT EXISTS offers_offerees_idx ON offers USING gin (offerees)`)
	return err
}

func (s *Store) AddOffer(ctx context.Context, in NewOffer) (*domain.Offer, error) {
	o := &domain.Offer{
		ID:             newOfferID(),
		Title:          in.Title,
		Terms:          in.Terms,
		SpecificTerms:  in.SpecificTerms,
		PaymentAmount:  in.PaymentAmount,
		PaymentDueDate: in.PaymentDueDate,
		PaymentMethod:  in.PaymentMethod,
		Duration:       in.Duration,
		Location:       in.Location,
		OfferorName:    in.OfferorName,
		OfferorEmail:   in.OfferorEmail,
		Offerees:       in.Offerees,
		Status:         initialStatus(in.Draft),
		CreatedAt:      time.Now().UTC(),
	}
	terms, err := json.Marshal(o.SpecificTerms)
	if err != nil {
		return nil, err
	}
	offerees, err := json.Marshal(o.Offerees)
	if err != nil {
		return nil, err
	}
	_, err = s.DB.Exec(ctx, `
INSERT INTO offers(offer_id,title,terms,specific_terms,payment_amount,payment_due_date,payment_method,duration,location,offeror_name,offeror_email,offerees,status,created_at,accepted_at)
VALUES($1,$2,$3,$4::jsonb,$5,$6,$7,$8,$9,$10,$11,$12::jsonb,$13,$14,NULL)
`, o.ID, o.Title, o.Terms, string(terms), o.PaymentAmount, o.PaymentDueDate, o.PaymentMethod, o.Duration, o.Location, o.OfferorName, o.OfferorEmail, string(offerees), string(o.Status), o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

const offerColumns = `offer_id,title,terms,specific_terms,payment_amount,payment_due_date,payment_method,duration,location,offeror_name,offeror_email,offerees,status,created_at,accepted_at`

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var o domain.Offer
	var terms, offerees []byte
	var status string
	err := row.Scan(&o.ID, &o.Title, &o.Terms, &terms, &o.PaymentAmount, &o.PaymentDueDate, &o.PaymentMethod,
		&o.Duration, &o.Location, &o.OfferorName, &o.OfferorEmail, &offerees, &status, &o.CreatedAt, &o.AcceptedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(terms, &o.SpecificTerms); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(offerees, &o.Offerees); err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	return &o, nil
}

func (s *Store) GetOfferByID(ctx context.Context, id string) (*domain.Offer, error) {
	o, err := scanOffer(s.DB.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE offer_id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

func (s *Store) GetOffersByEmail(ctx context.Context, email string) ([]domain.Offer, error) {
	rows, err := s.DB.Query(ctx, `
SELECT `+offerColumns+` FROM offers
WHERE lower(offeror_email)=lower($1)
   OR EXISTS (
	SELECT 1 FROM jsonb_array_elements(offerees) AS p
	WHERE lower(p->>'email')=lower($1)
   )
ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// UpdateOfferStatus applies the new status in a single guarded UPDATE, so
// the check and the write cannot be split by a concurrent caller. The WHERE
// clause refuses to move an offer out of a terminal status (the rejected
// write matches no row), and COALESCE keeps the first accepted_at even when
// two accepts land back to back.
func (s *Store) UpdateOfferStatus(ctx context.Context, id string, status domain.Status) (*domain.Offer, error) {
	var row pgx.Row
	if status == domain.StatusAccepted {
		row = s.DB.QueryRow(ctx, `
UPDATE offers SET status=$2, accepted_at=COALESCE(accepted_at, now())
WHERE offer_id=$1 AND (status=$2 OR status NOT IN ('accepted','declined'))
RETURNING `+offerColumns, id, string(status))
	} else {
		row = s.DB.QueryRow(ctx, `
UPDATE offers SET status=$2
WHERE offer_id=$1 AND (status=$2 OR status NOT IN ('accepted','declined'))
RETURNING `+offerColumns, id, string(status))
	}
	o, err := scanOffer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}
