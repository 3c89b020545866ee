package agency

import (
	"fmt"

	"github.com/fractracker/complaints/internal/models"
)

const (
	CaliforniaEPA   = "California EPA Environmental Complaint System"
	ColoradoOGCC    = "Colorado Oil and Gas Conservation Commission"
	KentuckyEEC     = "Kentucky Energy and Environment"
	NebraskaDEQ     = "Nebraska Department of Environmental Quality"
	NewMexicoED     = "New Mexico Environment Department"
	NorthDakotaDEQ  = "North Dakota Department of Environmental Quality"
	OhioEPA         = "Ohio Environmental Protection Agency"
	PennsylvaniaDEP = "Pennsylvania Department of Environmental Protection"
	TennesseeDEC    = "Tennessee Department of Environment and Conservation"
	TexasCEQ        = "Texas Commission on Environmental Quality"
	WestVirginiaDEP = "West Virginia Department of Environmental Protection"
)

// AirQualityComplaint routes West Virginia reports to the air quality inbox.
func AirQualityComplaint(r models.Report) bool {
	return r.Senses.Has(models.SenseSmell) || r.HasType("Compressors")
}

type catalogEntry struct {
	jurisdiction Jurisdiction
	agency       string
	channel      models.Channel
	when         Predicate
}

var catalog = []catalogEntry{
	{California, CaliforniaEPA, models.ChannelWeb, Always},
	{Colorado, ColoradoOGCC, models.ChannelEmail, Always},
	{Kentucky, KentuckyEEC, models.ChannelEmail, Always},
	{Nebraska, NebraskaDEQ, models.ChannelEmail, Always},
	{NewMexico, NewMexicoED, models.ChannelWeb, Always},
	{NorthDakota, NorthDakotaDEQ, models.ChannelEmail, Always},
	{Ohio, OhioEPA, models.ChannelWeb, Always},
	{Pennsylvania, PennsylvaniaDEP, models.ChannelWeb, Always},
	{Tennessee, TennesseeDEC, models.ChannelEmail, Always},
	{Texas, TexasCEQ, models.ChannelWeb, Always},
	{WestVirginia, WestVirginiaDEP, models.ChannelEmail, AirQualityComplaint},
	{WestVirginia, WestVirginiaDEP, models.ChannelWeb, Not(AirQualityComplaint)},
}

// Builder creates the channel-specific handler for one catalog entry.
type Builder interface {
	EmailHandler(j Jurisdiction, agency string) (Handler, error)
	WebHandler(j Jurisdiction, agency string) (Handler, error)
}

// Catalog builds the registry of every configured agency.
func Catalog(b Builder) (*Registry, error) {
	reg := NewRegistry()
	for _, c := range catalog {
		var (
			h   Handler
			err error
		)
		switch c.channel {
		case models.ChannelEmail:
			h, err = b.EmailHandler(c.jurisdiction, c.agency)
		case models.ChannelWeb:
			h, err = b.WebHandler(c.jurisdiction, c.agency)
		default:
			err = fmt.Errorf("unknown channel %q", c.channel)
		}
		if err != nil {
			return nil, fmt.Errorf("build %s handler for %s: %w", c.channel, c.jurisdiction, err)
		}
		reg.Register(c.jurisdiction, Entry{
			When:       c.when,
			Descriptor: Descriptor{Agency: c.agency, Channel: c.channel, Handler: h},
		})
	}
	return reg, nil
}
