package domain

import (
	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	history "github.com/fd1az/wallet-dashboard/business/history/domain"
)

// Event is an input to Reduce.
type Event interface {
	event()
}

// ConnectStarted marks the beginning of an explicit connect.
type ConnectStarted struct{}

// ConnectSucceeded carries the accounts a connect prompt returned.
type ConnectSucceeded struct {
	Accounts []string
}

// ConnectFailed carries the user-facing reason a connect failed.
type ConnectFailed struct {
	Message string
}

// RestoreSucceeded carries already-authorized accounts from a silent check.
type RestoreSucceeded struct {
	Accounts []string
}

// Disconnected is an explicit disconnect.
type Disconnected struct{}

// ChainSelected switches the active chain.
type ChainSelected struct {
	Chain chain.Chain
}

// FetchRequested asks for a history refresh.
type FetchRequested struct{}

// FetchSucceeded completes the fetch issued as Request.
type FetchSucceeded struct {
	Request      FetchRequest
	Transactions []history.Transaction
}

// FetchFailed completes the fetch issued as Request with an error.
type FetchFailed struct {
	Request FetchRequest
}

// AccountsChanged is a wallet notification. Empty Accounts means revoked.
type AccountsChanged struct {
	Accounts []string
}

func (ConnectStarted) event()   {}
func (ConnectSucceeded) event() {}
func (ConnectFailed) event()    {}
func (RestoreSucceeded) event() {}
func (Disconnected) event()     {}
func (ChainSelected) event()    {}
func (FetchRequested) event()   {}
func (FetchSucceeded) event()   {}
func (FetchFailed) event()      {}
func (AccountsChanged) event()  {}

// FetchRequest identifies one issued history fetch.
type FetchRequest struct {
	Seq     uint64
	Address string
	Chain   chain.Chain
}

// Effect is work the driver performs after a transition.
type Effect interface {
	effect()
}

// FetchHistory asks the driver to run a history fetch.
type FetchHistory struct {
	Request FetchRequest
}

// PersistChain asks the driver to store the selected chain.
type PersistChain struct {
	Chain chain.Chain
}

func (FetchHistory) effect() {}
func (PersistChain) effect() {}

// Reduce applies ev to s. It never performs I/O.
func Reduce(s Session, ev Event) (Session, []Effect) {
	switch e := ev.(type) {
	case ConnectStarted:
		s.IsLoading = true
		s.Error = ""
		return s, nil

	case ConnectSucceeded:
		// An approved prompt with no accounts is treated as a rejection.
		if len(e.Accounts) == 0 {
			s.IsLoading = false
			s.Error = MsgConnectionFailed
			return s, nil
		}
		s = connectAs(s, e.Accounts[0])
		s.IsLoading = false
		return startFetch(s)

	case ConnectFailed:
		s.IsLoading = false
		s.Error = e.Message
		if s.Error == "" {
			s.Error = MsgConnectionFailed
		}
		return s, nil

	case RestoreSucceeded:
		if len(e.Accounts) == 0 {
			return s, nil
		}
		s = connectAs(s, e.Accounts[0])
		return startFetch(s)

	case Disconnected:
		return disconnect(s), nil

	case ChainSelected:
		if !e.Chain.Valid() {
			return s, nil
		}
		if s.SelectedChain != e.Chain {
			s.Transactions = []history.Transaction{}
		}
		s.SelectedChain = e.Chain
		s.Error = ""
		effects := []Effect{PersistChain{Chain: e.Chain}}
		if s.IsConnected {
			var fetch []Effect
			s, fetch = startFetch(s)
			effects = append(effects, fetch...)
		}
		return s, effects

	case FetchRequested:
		return startFetch(s)

	case FetchSucceeded:
		if !applicable(s, e.Request) {
			return s, nil
		}
		s.Transactions = e.Transactions
		if s.Transactions == nil {
			s.Transactions = []history.Transaction{}
		}
		if s.Error == MsgFetchFailed {
			s.Error = ""
		}
		return settle(s, e.Request), nil

	case FetchFailed:
		if !applicable(s, e.Request) {
			return s, nil
		}
		s.Transactions = []history.Transaction{}
		s.Error = MsgFetchFailed
		return settle(s, e.Request), nil

	case AccountsChanged:
		if len(e.Accounts) == 0 {
			if !s.IsConnected {
				return s, nil
			}
			return disconnect(s), nil
		}
		s = connectAs(s, e.Accounts[0])
		return startFetch(s)
	}

	return s, nil
}

func connectAs(s Session, address string) Session {
	if s.Address != address {
		s.Transactions = []history.Transaction{}
	}
	s.Address = address
	s.IsConnected = true
	return s
}

func disconnect(s Session) Session {
	s.Address = ""
	s.IsConnected = false
	s.Transactions = []history.Transaction{}
	s.IsLoading = false
	s.Error = ""
	return s
}

// startFetch issues a fetch tagged with the next sequence number. Without
// an address it is a no-op.
func startFetch(s Session) (Session, []Effect) {
	if s.Address == "" {
		return s, nil
	}
	s.FetchSeq++
	s.IsLoading = true
	s.Error = ""
	return s, []Effect{FetchHistory{Request: FetchRequest{
		Seq:     s.FetchSeq,
		Address: s.Address,
		Chain:   s.SelectedChain,
	}}}
}

// applicable reports whether a completed fetch still describes what the
// session shows and is newer than the last applied result.
func applicable(s Session, req FetchRequest) bool {
	return s.IsConnected &&
		req.Address == s.Address &&
		req.Chain == s.SelectedChain &&
		req.Seq > s.AppliedSeq
}

func settle(s Session, req FetchRequest) Session {
	s.AppliedSeq = req.Seq
	s.IsLoading = req.Seq < s.FetchSeq
	return s
}
