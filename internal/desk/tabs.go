package desk

import "fmt"

// Tab identifies a section of the UI.
type Tab string

const (
	TabSubmit Tab = "submit"
	TabQuery  Tab = "query"
)

// DefaultTabs is the fixed tab order.
var DefaultTabs = []Tab{TabSubmit, TabQuery}

// TabSet holds a fixed list of tabs with exactly one active.
type TabSet struct {
	order  []Tab
	active Tab
}

// NewTabSet activates the first tab. It panics on an empty or duplicated list.
func NewTabSet(tabs ...Tab) TabSet {
	if len(tabs) == 0 {
		panic("desk: tab set needs at least one tab")
	}
	seen := make(map[Tab]struct{}, len(tabs))
	for _, tab := range tabs {
		if _, dup := seen[tab]; dup {
			panic(fmt.Sprintf("desk: duplicate tab %q", tab))
		}
		seen[tab] = struct{}{}
	}
	return TabSet{order: append([]Tab(nil), tabs...), active: tabs[0]}
}

// Activate makes tab the only active tab.
func (s *TabSet) Activate(tab Tab) error {
	if !s.Has(tab) {
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	s.active = tab
	return nil
}

// Active returns the active tab.
func (s TabSet) Active() Tab { return s.active }

// IsActive reports whether tab is the active one.
func (s TabSet) IsActive(tab Tab) bool { return s.active == tab }

// Has reports whether tab belongs to the set.
func (s TabSet) Has(tab Tab) bool {
	for _, t := range s.order {
		if t == tab {
			return true
		}
	}
	return false
}

// Tabs returns the tabs in display order.
func (s TabSet) Tabs() []Tab { return append([]Tab(nil), s.order...) }

// Next returns the tab after the active one, wrapping around. A negative
// step moves backwards.
func (s TabSet) Next(step int) Tab {
	idx := 0
	for i, t := range s.order {
		if t == s.active {
			idx = i
			break
		}
	}
	n := len(s.order)
	return s.order[((idx+step)%n+n)%n]
}
