package translate

// catalog holds the built-in UI strings. Keys are stable identifiers used by
// the dashboard; each maps language code to the localized text.
var catalog = map[string]map[string]string{
	"greeting": {
		"en": "Welcome to JarvisFi, your financial assistant.",
		"ta": "JarvisFi-க்கு வரவேற்கிறோம், உங்கள் நிதி உதவியாளர்.",
		"hi": "JarvisFi में आपका स्वागत है, आपका वित्तीय सहायक।",
		"te": "JarvisFi కి స్వాగతం, మీ ఆర్థిక సహాయకుడు.",
	},
	"ask_anything": {
		"en": "Ask me anything about money.",
		"ta": "பணம் பற்றி என்னிடம் எதையும் கேளுங்கள்.",
		"hi": "पैसे के बारे में मुझसे कुछ भी पूछें।",
		"te": "డబ్బు గురించి నన్ను ఏదైనా అడగండి.",
	},
	"budget": {
		"en": "Budget",
		"ta": "பட்ஜெட்",
		"hi": "बजट",
		"te": "బడ్జెట్",
	},
	"savings_goal": {
		"en": "Savings goal",
		"ta": "சேமிப்பு இலக்கு",
		"hi": "बचत लक्ष्य",
		"te": "పొదుపు లక్ష్యం",
	},
	"investment": {
		"en": "Investment",
		"ta": "முதலீடு",
		"hi": "निवेश",
		"te": "పెట్టుబడి",
	},
	"loan": {
		"en": "Loan",
		"ta": "கடன்",
		"hi": "ऋण",
		"te": "రుణం",
	},
	"monthly_income": {
		"en": "Monthly income",
		"ta": "மாத வருமானம்",
		"hi": "मासिक आय",
		"te": "నెలవారీ ఆదాయం",
	},
	"emergency_fund": {
		"en": "Emergency fund",
		"ta": "அவசர நிதி",
		"hi": "आपातकालीन निधि",
		"te": "అత్యవసర నిధి",
	},
	"tax": {
		"en": "Tax",
		"ta": "வரி",
		"hi": "कर",
		"te": "పన్ను",
	},
	"retirement": {
		"en": "Retirement",
		"ta": "ஓய்வூதியம்",
		"hi": "सेवानिवृत्ति",
		"te": "పదవీ విరమణ",
	},
}
