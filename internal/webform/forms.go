package webform

import (
	"fmt"
	"strings"
	"time"

	"github.com/fractracker/complaints/internal/models"
)

const maxOhioPhotos = 3

// Forms holds every supported agency form keyed by jurisdiction.
var Forms = map[string]Form{
	"california":    california,
	"new_mexico":    newMexico,
	"ohio":          ohio,
	"pennsylvania":  pennsylvania,
	"texas":         texas,
	"west_virginia": westVirginia,
}

func byName(name string) string { return fmt.Sprintf("[name='%s']", name) }

func countyName(r models.Report) (string, error) {
	if r.Location == nil || r.Location.CountyName() == "" {
		return "", fmt.Errorf("report %s has no county", r.ID)
	}
	return strings.TrimSpace(strings.Replace(r.Location.CountyName(), " County", "", 1)), nil
}

func fullAddress(r models.Report) (string, error) {
	if r.Location == nil || r.Location.Address() == "" {
		return "", fmt.Errorf("report %s has no address", r.ID)
	}
	return r.Location.Address(), nil
}

func latLon(r models.Report) string {
	return fmt.Sprintf("The latitude-longitude is (%v, %v).", r.Lat, r.Lon)
}

// spacedName joins whatever name parts are present.
func spacedName(r models.Report) string {
	var parts []string
	for _, p := range []*string{r.FirstName, r.LastName} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, " ")
}

// CaliforniaComplaintType picks the complaint type radio: water, waste or air.
func CaliforniaComplaintType(r models.Report) string {
	switch {
	case r.Senses.Has(models.SenseTaste):
		return "water"
	case r.Senses.Has(models.SenseTouch) || r.HasType("Landfills"):
		return "waste"
	default:
		return "air"
	}
}

var california = Form{
	Name:   "california",
	URL:    "https://calepacomplaints.secure.force.com/complaints/",
	Title:  "New",
	Submit: "//*[@id='iButton']",
	Steps: func(r models.Report) ([]Step, error) {
		date, err := r.ParsedDate()
		if err != nil {
			return nil, err
		}
		return []Step{
			click(fmt.Sprintf("//*[@id='%s']", CaliforniaComplaintType(r))),
			shot("pg1"),
			click("//*[@id='complaintDetailsButton']"),
			fill(byName("details:JCMC:detailsForm:descriptionTextArea"), r.Description),
			fill(byName("details:JCMC:detailsForm:locationDescriptionTextArea"), latLon(r)),
			click("//*[@id='dateOfOccurence']/div/div/div[1]/div[1]/table/thead/tr[1]/th[2]"),
			click("//*[@id='dateOfOccurence']/div/div/div[1]/div[2]/table/thead/tr/th[2]"),
			click(fmt.Sprintf("//span[.='%s']", date.Format("2006"))),
			click(fmt.Sprintf("//span[.='%s']", date.Format("Jan"))),
			click(fmt.Sprintf("td[data-day='%s']", date.Format("01/02/2006"))),
			shot("pg2"),
			click("//*[@id='almostDoneButton']"),
			fill(byName("ComplaintContact:JCMC:AnonymousForm:FirstName"), strings.TrimSpace(deref(r.FirstName))),
			fill(byName("ComplaintContact:JCMC:AnonymousForm:LastName"), strings.TrimSpace(deref(r.LastName))),
			fill(byName("ComplaintContact:JCMC:AnonymousForm:email"), r.Email),
			fill(byName("ComplaintContact:JCMC:AnonymousForm:confirmEmail"), r.Email),
			shot("pg3"),
		}, nil
	},
}

var newMexico = Form{
	Name:   "new_mexico",
	URL:    "https://ents.web.env.nm.gov/public/INCIDENT_HDR_add.php",
	Title:  "Envir",
	Submit: "#submit1",
	Confirmation: Confirmation{
		Kind: BodyContains,
		Text: "Your notification has been received.",
	},
	Steps: func(r models.Report) ([]Step, error) {
		county, err := countyName(r)
		if err != nil {
			return nil, err
		}
		return []Step{
			byValue(byName("value1"), "ZZ"),
			byText(byName("value13"), county),
			fill(byName("value16"), r.Description),
			fill(byName("value4"), fmt.Sprintf("The latitude-longitude is (%v,%v)", r.Lat, r.Lon)),
			fill(byName("value17"), spacedName(r)),
			fill(byName("value24"), r.Email),
		}, nil
	},
}

// OhioCategory returns the 1-based position of the complaint category:
// 1 air, 2 water, 3 drinking water, 4 land.
func OhioCategory(r models.Report) int {
	switch {
	case r.Senses.Has(models.SenseTaste):
		return 3
	case r.Senses.Has(models.SenseSmell):
		return 1
	case r.Senses.Has(models.SenseSound):
		return 4
	case r.HasType("Compressors") || r.HasType("Refineries"):
		return 1
	case r.HasType("Pits") || r.HasType("Mines"):
		return 2
	default:
		return 4
	}
}

var ohio = Form{
	Name:   "ohio",
	URL:    "https://survey123.arcgis.com/share/af6b0b7597d842cb8debfc73c51ff085",
	Title:  "Environmental Complaint",
	Submit: "//*[@id='validate-form']",
	Confirmation: Confirmation{
		Kind:     ClassLacks,
		Selector: "#screenContentPage",
		Text:     "hide",
	},
	Steps: func(r models.Report) ([]Step, error) {
		date, err := r.ParsedDate()
		if err != nil {
			return nil, err
		}
		steps := []Step{
			fill("//*[@id='Complaints']/label[1]/textarea", r.Description),
			fill("//label[@class='geo lat']", fmt.Sprint(r.Lat)),
			fill("//label[@class='geo long']", fmt.Sprint(r.Lon)),
			fill("//*[@id='Complaints']/label[5]/div/div[2]/input", date.Format("01/02/2006")),
			fill("//*[@id='Complaints']/section[2]/fieldset/label[1]/input", spacedName(r)),
			fill("//*[@id='Complaints']/section[2]/fieldset/label[7]/input", r.Email),
			click(fmt.Sprintf("//*[@id='Complaints']/fieldset[1]/fieldset/div/label[%d]", OhioCategory(r))),
			click("//*[@id='Complaints']/fieldset[2]/fieldset/div/label[last()]"),
		}
		if len(r.ImageURLs) > 0 {
			urls := r.ImageURLs
			if len(urls) > maxOhioPhotos {
				urls = urls[:maxOhioPhotos]
			}
			steps = append(steps, upload("//*[@id='Complaints']/label[6]/input[1]", urls))
		}
		return steps, nil
	},
}

var pennsylvania = Form{
	Name:    "pennsylvania",
	URL:     "https://www.depgreenport.state.pa.us/EnvironmentalComplaintForm/",
	Title:   "Complaint Form",
	Submit:  "#SubmitButton",
	Confirm: "#submitForm",
	Steps: func(r models.Report) ([]Step, error) {
		county, err := countyName(r)
		if err != nil {
			return nil, err
		}
		address, err := fullAddress(r)
		if err != nil {
			return nil, err
		}
		location := fmt.Sprintf("Latitude: %v Longitude: %v Address: %s", r.Lat, r.Lon, address)
		return []Step{
			fill("#ec_name", spacedName(r)),
			fill("#email", r.Email),
			fill("#pd1_comments_field", r.Description),
			fill("#pd2_comments_field", location),
			click("#ConfirmationCheckYes"),
			click("#buttonOk"),
			byText("#countyProblem", county),
			// the township is whichever address component the form knows
			byValue("#locationProblem", strings.Split(address, ", ")...),
			click("//input[@type='radio' and @name='OBKey__312_1' and @value='0']"),
			shot("filled"),
		}, nil
	},
}

// observedTime rounds a report time to the quarter hour on a 12-hour clock,
// returning the option value (h:mm) and am/pm.
func observedTime(t time.Time) (string, string) {
	t = t.Round(15 * time.Minute)
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	ampm := "am"
	if t.Hour() >= 12 {
		ampm = "pm"
	}
	return fmt.Sprintf("%d:%02d", hour, t.Minute()), ampm
}

var texas = Form{
	Name:   "texas",
	URL:    "https://www.tceq.texas.gov/assets/public/compliance/monops/complaints/complaints.html",
	Title:  "TCEQ",
	Submit: `//*[@id="content"]/p/button`,
	Steps: func(r models.Report) ([]Step, error) {
		date, err := r.ParsedDate()
		if err != nil {
			return nil, err
		}
		county, err := countyName(r)
		if err != nil {
			return nil, err
		}
		address, err := fullAddress(r)
		if err != nil {
			return nil, err
		}
		concern := r.Description
		if concern == "" {
			concern = "N/A"
		}
		clock, ampm := observedTime(date)
		return []Step{
			fill("#datepicker", date.Format("01/02/2006")),
			fill("#location", address),
			fill("#concern", concern),
			fill("#name", spacedName(r)),
			fill("#email", r.Email),
			fill("#city", "See address above"),
			fill("#who", "N/A"),
			byValue("#time", clock),
			byValue("#ampm", ampm),
			byValue("#county", county),
			shot("filled"),
		}, nil
	},
}

var westVirginia = Form{
	Name:   "west_virginia",
	URL:    "https://dep.wv.gov/WWE/ee/geninfo/Pages/complaints.aspx",
	Title:  "Complaint",
	Submit: byName("submit"),
	Steps: func(r models.Report) ([]Step, error) {
		county, err := countyName(r)
		if err != nil {
			return nil, err
		}
		return []Step{
			frame("#MSOPageViewerWebPart_WebPartWPQ1"),
			byValue(byName("c_county"), county),
			fill(byName("c_location"), latLon(r)),
			fill(byName("c_description"), r.Description),
			fill(byName("c_name"), spacedName(r)),
			shot("filled"),
		}, nil
	},
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
