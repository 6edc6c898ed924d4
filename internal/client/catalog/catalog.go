// Package catalog lists the events, gigs and opportunities a volunteer can
// sign up for.
package catalog

import (
	"strconv"

	"github.com/dmitrijs2005/impacthands/internal/client/models"
)

// Item is one thing to enroll in. Spots is the capacity and Left the
// remaining places; Left is zero when not tracked.
type Item struct {
	Kind     models.Kind
	ID       int
	Title    string
	Date     string
	Location string
	Category string
	Spots    int
	Left     int
}

// TargetID is the identifier stored with an enrollment.
func (i Item) TargetID() string { return strconv.Itoa(i.ID) }

var events = []Item{
	{Kind: models.KindEvent, ID: 1, Title: "Community Clean-Up Day", Date: "Mar 15, 2026", Location: "Riverside Park", Category: "Environment", Spots: 50, Left: 12},
	{Kind: models.KindEvent, ID: 2, Title: "Food Drive Collection", Date: "Mar 22, 2026", Location: "Community Center", Category: "Hunger Relief", Spots: 30, Left: 8},
	{Kind: models.KindEvent, ID: 3, Title: "Youth Mentoring Workshop", Date: "Apr 5, 2026", Location: "Lincoln Library", Category: "Education", Spots: 20, Left: 5},
	{Kind: models.KindEvent, ID: 4, Title: "Earth Day Tree Planting", Date: "Apr 22, 2026", Location: "Greenfield Park", Category: "Environment", Spots: 100, Left: 34},
	{Kind: models.KindEvent, ID: 5, Title: "Summer Kickoff Fundraiser", Date: "May 10, 2026", Location: "Grand Hall", Category: "Fundraiser", Spots: 200, Left: 75},
	{Kind: models.KindEvent, ID: 6, Title: "Back to School Supply Drive", Date: "Aug 1, 2026", Location: "City Square", Category: "Education", Spots: 40, Left: 22},
}

var gigs = []Item{
	{Kind: models.KindGig, ID: 1, Title: "Community Food Drive", Date: "Mar 20, 2026", Location: "Downtown Center", Category: "Hunger Relief", Spots: 15},
	{Kind: models.KindGig, ID: 2, Title: "Youth Education Program", Date: "Mar 25, 2026", Location: "Lincoln School", Category: "Education", Spots: 10},
	{Kind: models.KindGig, ID: 3, Title: "Park Restoration Project", Date: "Apr 5, 2026", Location: "Greenfield Park", Category: "Environment", Spots: 25},
	{Kind: models.KindGig, ID: 4, Title: "Housing Build Weekend", Date: "Apr 12-13, 2026", Location: "Eastside District", Category: "Housing", Spots: 20},
	{Kind: models.KindGig, ID: 5, Title: "Online Tutoring", Date: "Ongoing", Location: "Remote", Category: "Education", Spots: 30},
	{Kind: models.KindGig, ID: 6, Title: "Meal Preparation", Date: "Mar 28, 2026", Location: "Community Kitchen", Category: "Hunger Relief", Spots: 12},
	{Kind: models.KindGig, ID: 7, Title: "Tree Planting Initiative", Date: "Apr 22, 2026", Location: "City Parks", Category: "Environment", Spots: 40},
	{Kind: models.KindGig, ID: 8, Title: "Home Repair Assistance", Date: "Flexible", Location: "Various Locations", Category: "Housing", Spots: 8},
}

var opportunities = []Item{
	{Kind: models.KindOpportunity, ID: 1, Title: "Community Food Drive", Date: "4 hours", Location: "Downtown Center", Category: "Hunger Relief"},
	{Kind: models.KindOpportunity, ID: 2, Title: "Youth Education Program", Date: "3 hours/week", Location: "Lincoln School", Category: "Education"},
	{Kind: models.KindOpportunity, ID: 3, Title: "Park Restoration Project", Date: "Full day", Location: "Greenfield Park", Category: "Environment"},
	{Kind: models.KindOpportunity, ID: 4, Title: "Housing Build Weekend", Date: "2 days", Location: "Eastside District", Category: "Housing"},
	{Kind: models.KindOpportunity, ID: 5, Title: "Online Tutoring", Date: "2 hours/week", Location: "Remote", Category: "Education"},
	{Kind: models.KindOpportunity, ID: 6, Title: "Meal Preparation", Date: "5 hours", Location: "Community Kitchen", Category: "Hunger Relief"},
	{Kind: models.KindOpportunity, ID: 7, Title: "Tree Planting Initiative", Date: "Half day", Location: "City Parks", Category: "Environment"},
	{Kind: models.KindOpportunity, ID: 8, Title: "Home Repair Assistance", Date: "Flexible", Location: "Various Locations", Category: "Housing"},
}

// List returns the items of kind in display order. The slice is a copy.
func List(kind models.Kind) []Item {
	switch kind {
	case models.KindEvent:
		return append([]Item(nil), events...)
	case models.KindGig:
		return append([]Item(nil), gigs...)
	case models.KindOpportunity:
		return append([]Item(nil), opportunities...)
	}
	return nil
}

// Find returns the item of kind with the given id.
func Find(kind models.Kind, id string) (Item, bool) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return Item{}, false
	}
	for _, it := range List(kind) {
		if it.ID == n {
			return it, true
		}
	}
	return Item{}, false
}

// ParseKind maps user input to a Kind.
func ParseKind(s string) (models.Kind, bool) {
	switch s {
	case "event", "events":
		return models.KindEvent, true
	case "gig", "gigs":
		return models.KindGig, true
	case "opportunity", "opportunities", "opp":
		return models.KindOpportunity, true
	}
	return "", false
}
