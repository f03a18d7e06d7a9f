package htlc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/codec"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/orm"
)

// SwapState is the outcome of a swap.
type SwapState uint8

const (
	SwapPending SwapState = iota + 1
	SwapClaimed
	SwapRefunded
)

var swapStateNames = map[SwapState]string{
	SwapPending:  "pending",
	SwapClaimed:  "claimed",
	SwapRefunded: "refunded",
}

func (s SwapState) String() string {
	if n, ok := swapStateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("SwapState(%d)", s)
}

func (s SwapState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SwapState) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return errors.Wrap(errors.ErrInput, "swap state must be a string")
	}
	for state, n := range swapStateNames {
		if n == name {
			*s = state
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInput, "unknown swap state %q", name)
}

// Swap is the record of a single hash time-locked swap.
type Swap struct {
	Initiator fluida.Address
	Recipient fluida.Address
	Amount    *uint256.Int
	HashLock  []byte
	TimeLock  fluida.UnixTime
	State     SwapState
	// Preimage is the revealed secret of a claimed swap.
	Preimage []byte
}

var _ orm.CloneableData = (*Swap)(nil)

// IsCompleted returns true once the funds were released, either to the
// recipient or back to the initiator.
func (s *Swap) IsCompleted() bool {
	return s.State != SwapPending
}

func (s *Swap) Validate() error {
	if err := s.Initiator.Validate(); err != nil {
		return errors.Wrap(errors.ErrModel, "initiator")
	}
	if err := s.Recipient.Validate(); err != nil {
		return errors.Wrap(errors.ErrModel, "recipient")
	}
	if s.Amount == nil || s.Amount.BitLen() > amountWidth*8 {
		return errors.Wrap(errors.ErrModel, "amount must fit 128 bits")
	}
	if len(s.HashLock) != HashLength {
		return errors.Wrapf(errors.ErrModel, "hash lock must be %d bytes", HashLength)
	}
	if s.TimeLock < 0 {
		return errors.Wrap(errors.ErrModel, "negative time lock")
	}
	switch s.State {
	case SwapPending, SwapRefunded:
		if len(s.Preimage) != 0 {
			return errors.Wrapf(errors.ErrModel, "%s swap with preimage", s.State)
		}
	case SwapClaimed:
		if len(s.Preimage) != idWidth {
			return errors.Wrap(errors.ErrModel, "claimed swap without preimage")
		}
	default:
		return errors.Wrapf(errors.ErrModel, "invalid state %d", s.State)
	}
	return nil
}

func (s *Swap) Copy() orm.CloneableData {
	cpy := &Swap{
		Initiator: s.Initiator.Clone(),
		Recipient: s.Recipient.Clone(),
		HashLock:  append([]byte(nil), s.HashLock...),
		TimeLock:  s.TimeLock,
		State:     s.State,
		Preimage:  append([]byte(nil), s.Preimage...),
	}
	if s.Amount != nil {
		cpy.Amount = s.Amount.Clone()
	}
	return cpy
}

func (s *Swap) Marshal() ([]byte, error) {
	e := codec.NewEncoder()
	e.Bytes(1, s.Initiator)
	e.Bytes(2, s.Recipient)
	if s.Amount != nil {
		e.Bytes(3, s.Amount.Bytes())
	}
	e.Bytes(4, s.HashLock)
	e.Int64(5, int64(s.TimeLock))
	e.Uint64(6, uint64(s.State))
	e.Bytes(7, s.Preimage)
	return e.Result(), nil
}

func (s *Swap) Unmarshal(raw []byte) error {
	*s = Swap{Amount: new(uint256.Int)}
	d := codec.NewDecoder(raw)
	for d.More() {
		field, wire, err := d.Key()
		if err != nil {
			return err
		}
		var (
			b []byte
			n int64
			u uint64
		)
		switch field {
		case 1:
			b, err = d.Bytes(wire)
			s.Initiator = b
		case 2:
			b, err = d.Bytes(wire)
			s.Recipient = b
		case 3:
			b, err = d.Bytes(wire)
			if err == nil && len(b) > 32 {
				err = errors.Wrap(errors.ErrInput, "amount exceeds 256 bits")
			}
			s.Amount.SetBytes(b)
		case 4:
			s.HashLock, err = d.Bytes(wire)
		case 5:
			n, err = d.Int64(wire)
			s.TimeLock = fluida.UnixTime(n)
		case 6:
			u, err = d.Uint64(wire)
			if err == nil && u > 255 {
				err = errors.Wrapf(errors.ErrInput, "state %d", u)
			}
			s.State = SwapState(u)
		case 7:
			s.Preimage, err = d.Bytes(wire)
		default:
			err = d.Skip(wire)
		}
		if err != nil {
			return errors.Wrapf(err, "swap field %d", field)
		}
	}
	return nil
}

type swapJSON struct {
	Initiator fluida.Address  `json:"initiator"`
	Recipient fluida.Address  `json:"recipient"`
	Amount    string          `json:"amount"`
	HashLock  string          `json:"hash_lock"`
	TimeLock  fluida.UnixTime `json:"time_lock"`
	State     SwapState       `json:"state"`
	Preimage  string          `json:"preimage,omitempty"`
}

// MarshalJSON represents the amount as a decimal string and the binary
// fields as hex.
func (s *Swap) MarshalJSON() ([]byte, error) {
	amount := "0"
	if s.Amount != nil {
		amount = s.Amount.ToBig().String()
	}
	return json.Marshal(swapJSON{
		Initiator: s.Initiator,
		Recipient: s.Recipient,
		Amount:    amount,
		HashLock:  hex.EncodeToString(s.HashLock),
		TimeLock:  s.TimeLock,
		State:     s.State,
		Preimage:  hex.EncodeToString(s.Preimage),
	})
}

func (s *Swap) UnmarshalJSON(raw []byte) error {
	var j swapJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return err
	}
	amount, err := ParseAmount(j.Amount)
	if err != nil {
		return err
	}
	hashLock, err := hex.DecodeString(j.HashLock)
	if err != nil {
		return errors.Wrap(errors.ErrInput, "hash lock must be hex encoded")
	}
	var preimage []byte
	if j.Preimage != "" {
		if preimage, err = hex.DecodeString(j.Preimage); err != nil {
			return errors.Wrap(errors.ErrInput, "preimage must be hex encoded")
		}
	}
	*s = Swap{
		Initiator: j.Initiator,
		Recipient: j.Recipient,
		Amount:    amount,
		HashLock:  hashLock,
		TimeLock:  j.TimeLock,
		State:     j.State,
		Preimage:  preimage,
	}
	return nil
}

// ParseAmount parses a decimal or 0x prefixed hexadecimal unsigned integer
// of at most 256 bits.
func ParseAmount(s string) (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 0)
	if !ok || b.Sign() < 0 {
		return nil, errors.Wrapf(errors.ErrInput, "invalid number %q", s)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.Wrapf(errors.ErrOverflow, "%q exceeds 256 bits", s)
	}
	return v, nil
}

// SwapKey returns the primary key of the swap with given id.
func SwapKey(id uint64) []byte {
	key := uint256.NewInt(id).Bytes32()
	return key[:]
}

// swapIDFromKey returns the id encoded in a primary key. Keys above 64 bits
// are never allocated.
func swapIDFromKey(key []byte) (uint64, error) {
	v := new(uint256.Int).SetBytes(key)
	if len(key) != idWidth || !v.IsUint64() {
		return 0, errors.Wrapf(errors.ErrState, "invalid swap key %X", key)
	}
	return v.Uint64(), nil
}

// AsSwap will safely type-cast any value from Bucket.
func AsSwap(obj orm.Object) *Swap {
	if obj == nil || obj.Value() == nil {
		return nil
	}
	return obj.Value().(*Swap)
}

// Bucket stores the swaps, indexed by their hash lock.
type Bucket struct {
	orm.Bucket
	seq orm.Sequence
}

// NewBucket returns a bucket for managing swaps.
func NewBucket() Bucket {
	b := orm.NewBucket("swap", orm.NewSimpleObj(nil, &Swap{})).
		WithIndex("hashlock", hashLockIndexer, false)
	return Bucket{
		Bucket: b,
		seq:    orm.NewSequence(ConfigPkg, orm.SeqID),
	}
}

func hashLockIndexer(obj orm.Object) ([]byte, error) {
	s := AsSwap(obj)
	if s == nil {
		return nil, errors.Wrapf(errors.ErrType, "%T", obj.Value())
	}
	return s.HashLock, nil
}

// Counter returns the number of swaps ever created, which is also the id
// of the next swap.
func (b Bucket) Counter(db fluida.ReadOnlyKVStore) (uint64, error) {
	n, err := b.seq.Latest(db)
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// Create allocates the next id and stores the swap under it.
func (b Bucket) Create(db fluida.KVStore, swap *Swap) (uint64, error) {
	next, err := b.seq.NextInt(db)
	if err != nil {
		return 0, errors.Wrap(err, "next swap id")
	}
	id := uint64(next - 1)
	if err := b.Save(db, orm.NewSimpleObj(SwapKey(id), swap)); err != nil {
		return 0, err
	}
	return id, nil
}

// Update writes the new state of an existing swap.
func (b Bucket) Update(db fluida.KVStore, id uint64, swap *Swap) error {
	return b.Save(db, orm.NewSimpleObj(SwapKey(id), swap))
}

// GetSwap returns the swap with given id or ErrSwapNotFound. Ids that do not
// fit 64 bits are never allocated.
func (b Bucket) GetSwap(db fluida.ReadOnlyKVStore, id *uint256.Int) (uint64, *Swap, error) {
	if id == nil || !id.IsUint64() {
		return 0, nil, errors.Wrapf(ErrSwapNotFound, "id %s", idString(id))
	}
	obj, err := b.Get(db, SwapKey(id.Uint64()))
	if err != nil {
		return 0, nil, err
	}
	swap := AsSwap(obj)
	if swap == nil {
		return 0, nil, errors.Wrapf(ErrSwapNotFound, "id %d", id.Uint64())
	}
	return id.Uint64(), swap, nil
}

// HasSwap returns true if a swap with given id exists.
func (b Bucket) HasSwap(db fluida.ReadOnlyKVStore, id *uint256.Int) (bool, error) {
	if id == nil || !id.IsUint64() {
		return false, nil
	}
	return b.Has(db, SwapKey(id.Uint64()))
}

// SwapEntry is a swap together with its id.
type SwapEntry struct {
	ID   uint64 `json:"id"`
	Swap *Swap  `json:"swap"`
}

// ByHashLock returns all swaps locked with given hash, in id order.
func (b Bucket) ByHashLock(db fluida.ReadOnlyKVStore, hashLock []byte) ([]SwapEntry, error) {
	objs, err := b.GetIndexed(db, "hashlock", hashLock)
	if err != nil {
		return nil, err
	}
	entries := make([]SwapEntry, 0, len(objs))
	for _, obj := range objs {
		id, err := swapIDFromKey(obj.Key())
		if err != nil {
			return nil, err
		}
		entries = append(entries, SwapEntry{ID: id, Swap: AsSwap(obj)})
	}
	return entries, nil
}

// All returns every stored swap in id order.
func (b Bucket) All(db fluida.ReadOnlyKVStore) ([]SwapEntry, error) {
	var entries []SwapEntry
	err := b.Iterate(db, func(obj orm.Object) error {
		id, err := swapIDFromKey(obj.Key())
		if err != nil {
			return err
		}
		entries = append(entries, SwapEntry{ID: id, Swap: AsSwap(obj)})
		return nil
	})
	return entries, err
}

func idString(id *uint256.Int) string {
	if id == nil {
		return "<nil>"
	}
	return id.ToBig().String()
}
