package manifest

// TopicTable maps topic codes to category labels. Tables are immutable
// configuration, loaded once and passed explicitly to the components that
// need them.
type TopicTable map[string]string

// TopicTables is an ordered list of lookup tables tried in sequence; the
// first table holding a code wins.
type TopicTables []TopicTable

// Lookup resolves a topic code against the tables in order.
func (t TopicTables) Lookup(code string) (string, bool) {
	for _, table := range t {
		if label, ok := table[code]; ok {
			return label, true
		}
	}
	return "", false
}

// primaryTopics is the original conversation-category table keyed by the
// numeric codes early releases used.
var primaryTopics = TopicTable{
	"1":  "Social Interaction and Communication",
	"2":  "Entertainment and Leisure",
	"3":  "Education and Learning",
	"4":  "Working Place Cooperation",
	"5":  "Health and Wellness",
	"6":  "Travel and Navigation",
	"7":  "Finance and Budgeting",
	"8":  "Home Management",
	"9":  "Content Creation and Creative Arts",
	"10": "Customer Support",
	"11": "Customer Support",
	"12": "Accessibility",
	"13": "Legal and Ethical Guidance",
	"14": "Miscellaneous",
	"15": "Special Types of Conversations",
}

// remappedTopics supersedes the numeric table for newer releases, whose
// scripts carry suffixed codes with finer-grained labels. It is consulted
// only for codes the primary table does not know.
var remappedTopics = TopicTable{
	"1a":  "Greetings and Small Talk",
	"1b":  "Personal Relationships",
	"2a":  "Movies and Television",
	"2b":  "Music and Performing Arts",
	"3a":  "School and University Life",
	"3b":  "Self-Study and Online Learning",
	"4a":  "Meetings and Presentations",
	"4b":  "Team Coordination",
	"5a":  "Fitness and Nutrition",
	"5b":  "Medical Consultations",
	"6a":  "Directions and Commuting",
	"6b":  "Trip Planning",
	"7a":  "Banking and Payments",
	"7b":  "Household Budgeting",
	"8a":  "Cooking and Groceries",
	"8b":  "Repairs and Maintenance",
	"9a":  "Writing and Storytelling",
	"9b":  "Visual and Digital Arts",
	"10a": "Product Support Calls",
	"12a": "Assistive Technology",
	"13a": "Consumer Rights",
	"14a": "General Chit-Chat",
	"15a": "Interviews and Debates",
}

// DefaultTopicTables returns the ordered topic lookup: the primary numeric
// table first, then the remapped table as fallback.
func DefaultTopicTables() TopicTables {
	return TopicTables{primaryTopics, remappedTopics}
}
