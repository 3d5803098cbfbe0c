package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"escala_notifier/internal/domain/escala"
	"escala_notifier/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

// AssignmentFetcher turns the published roster for one date into reminder items.
type AssignmentFetcher struct {
	slotRepo      escala.SlotRepository
	peopleRepo    escala.PeopleRepository
	defaultLeader string
	logger        *logrus.Entry
}

func NewAssignmentFetcher(sr escala.SlotRepository, pr escala.PeopleRepository, defaultLeader string, logger *logrus.Entry) *AssignmentFetcher {
	return &AssignmentFetcher{
		slotRepo:      sr,
		peopleRepo:    pr,
		defaultLeader: defaultLeader,
		logger:        logger,
	}
}

// Fetch returns one item per (slot, person) for slots on the given date across every
// published link of that month. People without a dialable phone are left out.
func (f *AssignmentFetcher) Fetch(ctx context.Context, date time.Time) ([]*reminder.AssignmentItem, error) {
	links, err := f.slotRepo.ListPublishedLinks(ctx, int(date.Month()), date.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to list published links: %w", err)
	}
	if len(links) == 0 {
		f.logger.WithField("date", date.Format("2006-01-02")).Debug("No published links for month")
		return nil, nil
	}

	linkByID := make(map[string]*escala.Link, len(links))
	linkIDs := make([]string, 0, len(links))
	for _, l := range links {
		linkByID[l.ID] = l
		linkIDs = append(linkIDs, l.ID)
	}

	slots, err := f.slotRepo.ListSlotsOnDate(ctx, linkIDs, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots on %s: %w", date.Format("2006-01-02"), err)
	}
	if len(slots) == 0 {
		return nil, nil
	}

	slotByID := make(map[string]*escala.Slot, len(slots))
	slotIDs := make([]string, 0, len(slots))
	for _, s := range slots {
		slotByID[s.ID] = s
		slotIDs = append(slotIDs, s.ID)
	}

	assignments, err := f.slotRepo.ListAssignments(ctx, slotIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	if len(assignments) == 0 {
		return nil, nil
	}

	personIDs := make([]string, 0, len(assignments))
	seenPerson := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if !seenPerson[a.PersonID] {
			seenPerson[a.PersonID] = true
			personIDs = append(personIDs, a.PersonID)
		}
	}

	people, err := f.peopleRepo.ListByIDs(ctx, personIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve people: %w", err)
	}
	phoneByID := make(map[string]string, len(people))
	personByID := make(map[string]*escala.Person, len(people))
	for _, p := range people {
		personByID[p.ID] = p
		if p.Phone.Valid {
			phoneByID[p.ID] = NormalizePhone(p.Phone.String)
		}
	}

	type itemKey struct{ slotID, personID string }
	index := make(map[itemKey]*reminder.AssignmentItem)
	items := make([]*reminder.AssignmentItem, 0)
	dropped := 0

	for _, a := range assignments {
		slot, ok := slotByID[a.SlotID]
		if !ok {
			continue
		}
		phone := phoneByID[a.PersonID]
		if phone == "" {
			dropped++
			continue
		}

		k := itemKey{a.SlotID, a.PersonID}
		item, ok := index[k]
		if !ok {
			link := linkByID[slot.LinkID]
			item = f.newItem(slot, link, personByID[a.PersonID], phone)
			index[k] = item
			items = append(items, item)
		}
		item.Roles = appendRole(item.Roles, a.Role)
	}

	if dropped > 0 {
		f.logger.WithFields(logrus.Fields{
			"date":    date.Format("2006-01-02"),
			"dropped": dropped,
		}).Debug("Assignments without a dialable phone were skipped")
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.SlotTime != b.SlotTime {
			return a.SlotTime < b.SlotTime
		}
		if a.SlotID != b.SlotID {
			return a.SlotID < b.SlotID
		}
		if a.PersonName != b.PersonName {
			return a.PersonName < b.PersonName
		}
		return a.PersonID < b.PersonID
	})
	return items, nil
}

func (f *AssignmentFetcher) newItem(slot *escala.Slot, link *escala.Link, person *escala.Person, phone string) *reminder.AssignmentItem {
	item := &reminder.AssignmentItem{
		SlotID:     slot.ID,
		LinkID:     slot.LinkID,
		SlotTitle:  slot.Title,
		SlotDate:   slot.Date,
		SlotTime:   FormatSlotTime(slot.Time),
		PersonID:   person.ID,
		PersonName: strings.TrimSpace(person.Name),
		Phone:      phone,
		Roles:      make([]string, 0, 1),
	}
	if link != nil {
		item.ChurchName = link.ChurchName
		item.LeaderContact = leaderContact(link)
	}
	if item.LeaderContact == "" {
		item.LeaderContact = f.defaultLeader
	}
	if slot.Location.Valid && strings.TrimSpace(slot.Location.String) != "" {
		item.Location = strings.TrimSpace(slot.Location.String)
	} else {
		item.Location = item.ChurchName
	}
	return item
}

func leaderContact(link *escala.Link) string {
	name := strings.TrimSpace(link.LeaderName.String)
	phone := strings.TrimSpace(link.LeaderPhone.String)
	switch {
	case name != "" && phone != "":
		return fmt.Sprintf("%s (%s)", name, phone)
	case phone != "":
		return phone
	default:
		return name
	}
}

func appendRole(roles []string, role string) []string {
	role = strings.TrimSpace(role)
	if role == "" {
		return roles
	}
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return roles
		}
	}
	return append(roles, role)
}
