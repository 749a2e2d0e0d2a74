package orders

type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusShipped: true, StatusCancelled: true},
	StatusShipped:   {StatusDelivered: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s.Valid() && len(validNext[s]) == 0
}

// RestoresStock reports whether entering s gives the order's stock back.
func (s Status) RestoresStock() bool { return s == StatusCancelled }

// Reachable reports whether some non-empty chain of transitions leads from
// from to to. Every order's history is a path through the table, so of two
// statuses the same order has held, the later one is reachable from the
// earlier one.
func Reachable(from, to Status) bool {
	seen := map[Status]bool{}
	next := []Status{from}
	for len(next) > 0 {
		s := next[0]
		next = next[1:]
		for n := range validNext[s] {
			if n == to {
				return true
			}
			if !seen[n] {
				seen[n] = true
				next = append(next, n)
			}
		}
	}
	return false
}

// Predecessors lists the statuses from which s is reachable.
func Predecessors(s Status) []Status {
	var out []Status
	for from := range validNext {
		if Reachable(from, s) {
			out = append(out, from)
		}
	}
	return out
}
