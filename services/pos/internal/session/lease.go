package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const DefaultLeaseTTL = 15 * time.Minute

var (
	ErrInvalidLease = errors.New("invalid session lease")
	ErrLeaseExpired = errors.New("session lease expired")
)

// Claims binds a customer device to one table for the lease lifetime.
type Claims struct {
	TableID string `json:"tid"`
	jwt.StandardClaims
}

// Lease is a signed customer session.
type Lease struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	TableID   uuid.UUID `json:"table_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Remaining is the lease time left at now, never negative.
func (l *Lease) Remaining(now time.Time) time.Duration {
	if d := l.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

func (l *Lease) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// Issuer signs and verifies leases with a shared HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue starts a new lease for userID at tableID. A blank userID gets a
// generated device id.
func (i *Issuer) Issue(tableID uuid.UUID, userID string) (*Lease, error) {
	if userID == "" {
		userID = "guest-" + uuid.NewString()
	}
	now := i.now()
	lease := &Lease{
		SessionID: uuid.NewString(),
		UserID:    userID,
		TableID:   tableID,
		IssuedAt:  now.Truncate(time.Second),
		ExpiresAt: now.Add(i.ttl).Truncate(time.Second),
	}
	return i.sign(lease)
}

// Move rebinds a lease to another table. Session, customer and expiry are
// carried over unchanged.
func (i *Issuer) Move(l *Lease, tableID uuid.UUID) (*Lease, error) {
	moved := *l
	moved.TableID = tableID
	return i.sign(&moved)
}

func (i *Issuer) sign(lease *Lease) (*Lease, error) {
	claims := &Claims{
		TableID: lease.TableID.String(),
		StandardClaims: jwt.StandardClaims{
			Id:        lease.SessionID,
			Subject:   lease.UserID,
			IssuedAt:  lease.IssuedAt.Unix(),
			ExpiresAt: lease.ExpiresAt.Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("cannot sign lease: %w", err)
	}
	lease.Token = token
	return lease, nil
}

// Parse verifies the signature and returns the lease. An expired lease is
// returned together with ErrLeaseExpired so callers may still identify it.
func (i *Issuer) Parse(raw string) (*Lease, error) {
	parser := &jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}
	claims := &Claims{}
	token, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidLease
	}

	tableID, err := uuid.Parse(claims.TableID)
	if err != nil || claims.Id == "" || claims.Subject == "" {
		return nil, ErrInvalidLease
	}

	lease := &Lease{
		Token:     raw,
		SessionID: claims.Id,
		UserID:    claims.Subject,
		TableID:   tableID,
		IssuedAt:  time.Unix(claims.IssuedAt, 0),
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	}
	if lease.Expired(i.now()) {
		return lease, ErrLeaseExpired
	}
	return lease, nil
}
