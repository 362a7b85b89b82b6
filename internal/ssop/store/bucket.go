package store

import (
	"context"
	"time"
)

// Bucket is a namespace-bound view of a Store that converts typed
// artifacts to and from payloads.
type Bucket struct {
	st Store
	ns string
}

// NewBucket binds st to namespace ns.
func NewBucket(st Store, ns string) Bucket {
	return Bucket{st: st, ns: ns}
}

// Namespace returns the bound namespace.
func (b Bucket) Namespace() string { return b.ns }

// Save encodes v and upserts it under id.
func (b Bucket) Save(ctx context.Context, id string, v any, ttl time.Duration) error {
	p, err := Encode(v)
	if err != nil {
		return err
	}
	return b.st.Upsert(ctx, b.ns, id, p, ttl)
}

// Load finds id and decodes it into v.
func (b Bucket) Load(ctx context.Context, id string, v any) error {
	p, err := b.st.Find(ctx, b.ns, id)
	if err != nil {
		return err
	}
	return Decode(p, v)
}

// LoadByUID finds the first record with the given uid and decodes it into v.
func (b Bucket) LoadByUID(ctx context.Context, uid string, v any) error {
	p, err := b.st.FindByUID(ctx, b.ns, uid)
	if err != nil {
		return err
	}
	return Decode(p, v)
}

func (b Bucket) Destroy(ctx context.Context, id string) error {
	return b.st.Destroy(ctx, b.ns, id)
}

func (b Bucket) Consume(ctx context.Context, id string) (bool, error) {
	return b.st.Consume(ctx, b.ns, id)
}

func (b Bucket) RevokeByGrantID(ctx context.Context, grantID string) (int, error) {
	return b.st.RevokeByGrantID(ctx, b.ns, grantID)
}
