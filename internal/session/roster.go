package session

// Member is one lobby occupant as the roster knows them. Team is local
// bookkeeping; it never arrives over the wire.
type Member struct {
	ID          string
	DisplayName string
	Team        Team
}

// Label returns what a UI should print for the member: the display name
// when one is known, the id otherwise.
func (m Member) Label() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.ID
}

// Roster is the ordered set of players sharing the local lobby. All
// mutation happens on the core run loop, so there is no locking here.
type Roster struct {
	order []string
	byID  map[string]Member

	// onJoin/onLeave fire for reconciliation diffs and incremental updates.
	onJoin  func(Member)
	onLeave func(id string)
}

func NewRoster() *Roster {
	return &Roster{byID: make(map[string]Member)}
}

func (r *Roster) OnJoin(fn func(Member))  { r.onJoin = fn }
func (r *Roster) OnLeave(fn func(string)) { r.onLeave = fn }

func (r *Roster) Len() int { return len(r.order) }

func (r *Roster) Contains(id string) bool {
	_, ok := r.byID[id]
	return ok
}

func (r *Roster) Get(id string) (Member, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Members returns the roster in arrival order.
func (r *Roster) Members() []Member {
	out := make([]Member, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Upsert adds a member or refreshes their display name. A known name is
// never replaced by an empty one or by the bare id, so snapshots from
// servers that don't know names cannot regress names learned earlier.
func (r *Roster) Upsert(id, displayName string) {
	if id == "" {
		return
	}
	// Servers without a stored name echo the id back as the display name.
	if displayName == id {
		displayName = ""
	}
	if cur, ok := r.byID[id]; ok {
		if displayName != "" && displayName != cur.DisplayName {
			cur.DisplayName = displayName
			r.byID[id] = cur
		}
		return
	}
	m := Member{ID: id, DisplayName: displayName}
	r.order = append(r.order, id)
	r.byID[id] = m
	if r.onJoin != nil {
		r.onJoin(m)
	}
}

// SetTeam assigns a member's local affiliation.
func (r *Roster) SetTeam(id string, team Team) {
	if cur, ok := r.byID[id]; ok {
		cur.Team = team
		r.byID[id] = cur
	}
}

// Remove drops a member. No-op for unknown ids.
func (r *Roster) Remove(id string) {
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, cur := range r.order {
		if cur == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	if r.onLeave != nil {
		r.onLeave(id)
	}
}

// Rename moves a member to a new id, preserving order and name. Refuses
// to overwrite an existing entry under the new id; the stale entry is
// removed instead so the authoritative one survives.
func (r *Roster) Rename(oldID, newID string) {
	if oldID == newID {
		return
	}
	old, ok := r.byID[oldID]
	if !ok {
		return
	}
	if _, taken := r.byID[newID]; taken {
		delete(r.byID, oldID)
		for i, cur := range r.order {
			if cur == oldID {
				r.order = append(r.order[:i:i], r.order[i+1:]...)
				break
			}
		}
		return
	}
	delete(r.byID, oldID)
	old.ID = newID
	r.byID[newID] = old
	for i, cur := range r.order {
		if cur == oldID {
			r.order[i] = newID
			break
		}
	}
}

// ReplaceAll reconciles the roster against an authoritative snapshot.
// Members absent from the snapshot leave, new ones join, survivors keep
// their entry (name upgraded when the snapshot knows a better one). The
// onLeave/onJoin callbacks fire per difference, not per snapshot entry.
func (r *Roster) ReplaceAll(snapshot []Member) {
	seen := make(map[string]bool, len(snapshot))
	for _, m := range snapshot {
		if m.ID == "" {
			continue
		}
		seen[m.ID] = true
	}

	for _, id := range append([]string(nil), r.order...) {
		if !seen[id] {
			r.Remove(id)
		}
	}
	for _, m := range snapshot {
		r.Upsert(m.ID, m.DisplayName)
	}
}

// Clear empties the roster without firing callbacks. Used when the local
// player leaves the lobby and the roster is simply no longer relevant.
func (r *Roster) Clear() {
	r.order = nil
	r.byID = make(map[string]Member)
}
