// Package redis keeps the addressbook read-model indexes in Redis so several
// processes can share one projection.
package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/louisbranch/addressbook/internal/platform/timeouts"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/ids"
	"github.com/louisbranch/addressbook/internal/services/addressbook/projection"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "addressbook:"

// deleteIfEquals removes KEYS[1] only while it still holds ARGV[1].
var deleteIfEquals = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IndexStore implements projection.IndexStore on a Redis client.
//
// Layout, under the prefix:
//
//	name:<name>            -> profile id
//	label:<owner>/<label>  -> address id
//	token:<token>          -> address id
//	reverse:<address id>   -> hash {owner, label}
//	owned:<owner>          -> set of address ids
type IndexStore struct {
	client *redis.Client
	prefix string
}

// Open parses a redis:// URL and pings the server.
func Open(ctx context.Context, url, prefix string) (*IndexStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.StoreConnect)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return New(client, prefix), nil
}

// New wraps an existing client. An empty prefix selects DefaultPrefix.
func New(client *redis.Client, prefix string) *IndexStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &IndexStore{client: client, prefix: prefix}
}

// Close closes the client. It is nil-safe.
func (s *IndexStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Empty reports whether no key under the prefix exists.
func (s *IndexStore) Empty(ctx context.Context) (bool, error) {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 1).Iterator()
	if iter.Next(ctx) {
		return false, nil
	}
	if err := iter.Err(); err != nil {
		return false, fmt.Errorf("scan %s: %w", s.prefix, err)
	}
	return true, nil
}

// Reset deletes every key under the prefix.
func (s *IndexStore) Reset(ctx context.Context) error {
	const batch = 500
	iter := s.client.Scan(ctx, 0, s.prefix+"*", batch).Iterator()
	keys := make([]string, 0, batch)
	flush := func() error {
		if len(keys) == 0 {
			return nil
		}
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("reset %s: %w", s.prefix, err)
		}
		keys = keys[:0]
		return nil
	}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == batch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", s.prefix, err)
	}
	return flush()
}

func (s *IndexStore) nameKey(name string) string { return s.prefix + "name:" + name }

// Ids never contain '/', so the first slash splits owner from label.
func (s *IndexStore) labelKey(key projection.LabelKey) string {
	return s.prefix + "label:" + key.Owner.String() + "/" + key.Label
}

func (s *IndexStore) tokenKey(token ids.Token) string { return s.prefix + "token:" + token.String() }

func (s *IndexStore) reverseKey(id ids.AddressID) string { return s.prefix + "reverse:" + id.String() }

func (s *IndexStore) ownedKey(owner ids.ProfileID) string { return s.prefix + "owned:" + owner.String() }

func (s *IndexStore) get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *IndexStore) deleteIfEquals(ctx context.Context, key, value string) error {
	if err := deleteIfEquals.Run(ctx, s.client, []string{key}, value).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("conditional delete %s: %w", key, err)
	}
	return nil
}

func (s *IndexStore) ProfileIDByName(ctx context.Context, name string) (ids.ProfileID, bool, error) {
	raw, ok, err := s.get(ctx, s.nameKey(name))
	if err != nil || !ok {
		return ids.ProfileID{}, false, err
	}
	id, err := ids.ParseProfileID(raw)
	if err != nil {
		return ids.ProfileID{}, false, fmt.Errorf("decode profile id for %q: %w", name, err)
	}
	return id, true, nil
}

func (s *IndexStore) PutProfileName(ctx context.Context, name string, id ids.ProfileID) error {
	return s.client.Set(ctx, s.nameKey(name), id.String(), 0).Err()
}

func (s *IndexStore) DeleteProfileName(ctx context.Context, name string, id ids.ProfileID) error {
	return s.deleteIfEquals(ctx, s.nameKey(name), id.String())
}

func (s *IndexStore) AddressIDByLabel(ctx context.Context, key projection.LabelKey) (ids.AddressID, bool, error) {
	return s.addressAt(ctx, s.labelKey(key))
}

func (s *IndexStore) PutLabel(ctx context.Context, key projection.LabelKey, id ids.AddressID) error {
	return s.client.Set(ctx, s.labelKey(key), id.String(), 0).Err()
}

func (s *IndexStore) DeleteLabel(ctx context.Context, key projection.LabelKey, id ids.AddressID) error {
	return s.deleteIfEquals(ctx, s.labelKey(key), id.String())
}

func (s *IndexStore) AddressIDByToken(ctx context.Context, token ids.Token) (ids.AddressID, bool, error) {
	return s.addressAt(ctx, s.tokenKey(token))
}

func (s *IndexStore) PutToken(ctx context.Context, token ids.Token, id ids.AddressID) error {
	return s.client.Set(ctx, s.tokenKey(token), id.String(), 0).Err()
}

func (s *IndexStore) DeleteToken(ctx context.Context, token ids.Token) error {
	return s.client.Del(ctx, s.tokenKey(token)).Err()
}

func (s *IndexStore) addressAt(ctx context.Context, key string) (ids.AddressID, bool, error) {
	raw, ok, err := s.get(ctx, key)
	if err != nil || !ok {
		return ids.AddressID{}, false, err
	}
	id, err := ids.ParseAddressID(raw)
	if err != nil {
		return ids.AddressID{}, false, fmt.Errorf("decode address id at %s: %w", key, err)
	}
	return id, true, nil
}

func (s *IndexStore) LabelByAddressID(ctx context.Context, id ids.AddressID) (projection.LabelKey, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.reverseKey(id)).Result()
	if err != nil {
		return projection.LabelKey{}, false, fmt.Errorf("get reverse %s: %w", id, err)
	}
	if len(fields) == 0 {
		return projection.LabelKey{}, false, nil
	}
	owner, err := ids.ParseProfileID(fields["owner"])
	if err != nil {
		return projection.LabelKey{}, false, fmt.Errorf("decode owner of %s: %w", id, err)
	}
	return projection.LabelKey{Owner: owner, Label: fields["label"]}, true, nil
}

func (s *IndexStore) PutReverse(ctx context.Context, id ids.AddressID, key projection.LabelKey) error {
	return s.client.HSet(ctx, s.reverseKey(id), "owner", key.Owner.String(), "label", key.Label).Err()
}

func (s *IndexStore) DeleteReverse(ctx context.Context, id ids.AddressID) error {
	return s.client.Del(ctx, s.reverseKey(id)).Err()
}

func (s *IndexStore) AddressIDsByOwner(ctx context.Context, owner ids.ProfileID) ([]ids.AddressID, error) {
	members, err := s.client.SMembers(ctx, s.ownedKey(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("list owned by %s: %w", owner, err)
	}
	slices.Sort(members)
	out := make([]ids.AddressID, 0, len(members))
	for _, raw := range members {
		id, err := ids.ParseAddressID(raw)
		if err != nil {
			return nil, fmt.Errorf("decode owned id %q: %w", strings.TrimSpace(raw), err)
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *IndexStore) AddOwned(ctx context.Context, owner ids.ProfileID, id ids.AddressID) error {
	return s.client.SAdd(ctx, s.ownedKey(owner), id.String()).Err()
}

func (s *IndexStore) RemoveOwned(ctx context.Context, owner ids.ProfileID, id ids.AddressID) error {
	return s.client.SRem(ctx, s.ownedKey(owner), id.String()).Err()
}
