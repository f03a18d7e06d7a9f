package htlc

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/store"
	"github.com/fluida-labs/fluida/weavetest"
	"github.com/fluida-labs/fluida/weavetest/assert"
)

// fixture is a swap engine with a configured owner and custodian.
type fixture struct {
	db        store.CacheableKVStore
	owner     fluida.Condition
	custodian fluida.Condition
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	f := &fixture{
		db:        store.MemStore(),
		owner:     weavetest.NewCondition(),
		custodian: weavetest.NewCondition(),
	}
	conf := &Configuration{Owner: f.owner.Address(), Custodian: f.custodian.Address()}
	assert.Nil(t, conf.Validate())
	raw, err := conf.Marshal()
	assert.Nil(t, err)
	assert.Nil(t, f.db.Set([]byte("_c:htlc"), raw))
	return f
}

func depositPayload(t testing.TB, depositor, recipient fluida.Address, hashLock []byte, timeLock fluida.UnixTime) []byte {
	t.Helper()
	p := DepositPayload{
		Depositor: depositor,
		Recipient: recipient,
		HashLock:  hashLock,
		TimeLock:  timeLock,
	}
	raw, err := p.Marshal()
	assert.Nil(t, err)
	return raw
}

func newDeposit(initiator, recipient fluida.Address, amount uint64, preimage uint64, timeLock fluida.UnixTime) *Deposit {
	return &Deposit{
		Initiator: initiator,
		Recipient: recipient,
		Amount:    uint256.NewInt(amount),
		HashLock:  HashLock(uint256.NewInt(preimage)),
		TimeLock:  timeLock,
	}
}

func mustMarshal(t testing.TB, msg Msg) []byte {
	t.Helper()
	raw, err := msg.Marshal()
	assert.Nil(t, err)
	return raw
}
