package scenario

import "fmt"

// Greeting is the scripted opener shared by every scenario.
const Greeting = "Hello, this is Rosella, I am calling from Independence Care, how are you doing today!"

// Template is the static scripted response record for one category.
type Template struct {
	Greeting         string
	MainResponse     string
	FollowUp         string
	EarlySuggestions []string // shown while gathering detail
	LateSuggestions  []string // shown once the agent moves to providing a solution
}

// templates is the read-only category-to-script table, populated at init.
// The texts are the Independence Care agent scripts verbatim.
var templates = map[Category]Template{
	CategorySchedule: {
		Greeting:     Greeting,
		MainResponse: "I see you clocked in but there seems to be no schedule on your Calendar, can you confirm the client you are working with today?",
		FollowUp:     "No, please do not leave. Unfortunately, the app can malfunction at times and remove Caregivers from schedules. I will add you to the schedule and clock you in, if for any reason this causes an error your coordinator will reach out to you to clarify.",
		EarlySuggestions: []string{
			"Provide client name",
			"Check app again",
			"Contact coordinator",
		},
		LateSuggestions: []string{
			"Thank you for helping",
			"What should I do next?",
			"Is there anything else?",
		},
	},
	CategoryLocation: {
		Greeting:     Greeting,
		MainResponse: "I have noticed you have clocked in outside of the client's service area, which is not close to your client's house. Can you please clock in again once you are at your client's house, because we are not able to accept this clock in.",
		FollowUp:     "Remember it is state law that a Home Care agency cannot bill for visits that are rendered outside of the client's home.",
		EarlySuggestions: []string{
			"I'm at client's house",
			"I stopped for supplies",
			"GPS isn't working",
		},
		LateSuggestions: []string{
			"I'll clock in again",
			"Please verify with my client",
			"Is there anything else?",
		},
	},
	CategoryPhone: {
		Greeting:     Greeting,
		MainResponse: "I have noticed that you used the IVR number to clock in today, but you used your phone to call that number instead of the client's house phone. Can you please clock in again using the client's house phone?",
		FollowUp:     "If the client won't allow you to use their phone, I would recommend you use the HHA app to clock in. If your app doesn't work, I can have one of our care coordinators give you a call and get your HHA app set up.",
		EarlySuggestions: []string{
			"Use client's phone",
			"My app isn't working",
			"Help set up app",
		},
		LateSuggestions: []string{
			"I'll use the client's phone",
			"Can you help me set it up?",
			"Is there anything else?",
		},
	},
	CategoryTiming: {
		Greeting:     Greeting,
		MainResponse: "I have noticed that you clocked in late for your shift today, I just wanted to confirm what was the reason for that?",
		FollowUp:     "Would you be willing to make up for the hours you missed today by staying late on your shift today? Or any other day throughout the week?",
		EarlySuggestions: []string{
			"I can stay late",
			"Make up hours tomorrow",
			"Had an emergency",
		},
		LateSuggestions: []string{
			"I can stay late today",
			"Can I make up hours tomorrow?",
			"Is there anything else?",
		},
	},
	CategoryGeneral: {
		Greeting:     Greeting,
		MainResponse: "Thank you for contacting us. I'm here to help you with any questions or concerns you may have.",
		FollowUp:     "Could you tell me more about what you're looking for so I can provide the best assistance?",
		EarlySuggestions: []string{
			"Tell me more",
			"What should I do?",
			"Who can help?",
		},
		LateSuggestions: []string{
			"Can you help me with this?",
			"Who should I contact?",
			"What's the next step?",
		},
	},
}

// Lookup returns the Template for a category.
// It fails only for categories outside the closed enumeration; Classify never
// produces one, so an error here is an internal fault, not a client error.
func Lookup(c Category) (Template, error) {
	t, ok := templates[c]
	if !ok {
		return Template{}, fmt.Errorf("no template registered for category %q", c)
	}
	return t, nil
}
