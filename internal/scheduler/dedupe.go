package scheduler

// joinGroupLocked appends t to its dedupe group. When the group already has
// a primary, t adopts the primary's current interval and true is returned.
// The interval is copied once; later changes to the primary are not
// propagated.
func (s *Scheduler) joinGroupLocked(t *task) bool {
	key := t.def.DedupeKey
	members := s.groups[key]

	joined := false
	if len(members) > 0 {
		if primary, ok := s.tasks[members[0]]; ok {
			t.def.Interval = primary.def.Interval
		}
		joined = true
	}
	s.groups[key] = append(members, t.def.ID)
	return joined
}

// leaveGroupLocked removes t from its dedupe group, deleting the group once
// it is empty. If the primary leaves, the next member becomes primary.
func (s *Scheduler) leaveGroupLocked(t *task) {
	key := t.def.DedupeKey
	if key == "" {
		return
	}
	members := s.groups[key]
	for i, id := range members {
		if id == t.def.ID {
			members = append(members[:i:i], members[i+1:]...)
			break
		}
	}
	if len(members) == 0 {
		delete(s.groups, key)
		return
	}
	s.groups[key] = members
}

// DedupeGroups returns a copy of the dedupe key to member ids mapping.
// The first id of each group is its primary.
func (s *Scheduler) DedupeGroups() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := make(map[string][]string, len(s.groups))
	for key, members := range s.groups {
		groups[key] = append([]string(nil), members...)
	}
	return groups
}
