package orders

import (
	"regexp"
	"sort"
	"strings"
)

// Route codes.
const (
	RouteOral          = "PO"
	RouteTopical       = "TOP"
	RouteIntravenous   = "IV"
	RouteEnteralTube   = "GT"
	RouteOphthalmic    = "OPH"
	RouteIntramuscular = "IM"
	RouteSubcutaneous  = "SC"
)

// Infection sources, in classification priority order.
const (
	SourceUrinary     = "Urinary"
	SourceRespiratory = "Respiratory"
	SourceGI          = "GI"
	SourceSkin        = "Skin/Soft Tissue"
	SourceBloodstream = "Bloodstream"
	SourceOther       = "Other"
)

// antibioticNames is the primary source of precision for medication name
// extraction: generic and brand names of the antimicrobials seen on
// long-term-care order listings.
var antibioticNames = []string{
	// penicillins
	"amoxicillin", "amoxicillin-clavulanate", "augmentin", "ampicillin", "ampicillin-sulbactam",
	"unasyn", "penicillin", "dicloxacillin", "nafcillin", "oxacillin", "piperacillin",
	"piperacillin-tazobactam", "zosyn",
	// cephalosporins
	"cephalexin", "keflex", "cefadroxil", "cefazolin", "ancef", "cefuroxime", "ceftin",
	"cefprozil", "cefaclor", "cefdinir", "omnicef", "cefpodoxime", "vantin", "cefixime",
	"suprax", "ceftriaxone", "rocephin", "cefotaxime", "ceftazidime", "fortaz", "cefepime",
	"maxipime", "ceftaroline", "teflaro", "cefoxitin", "cefotetan",
	// carbapenems, monobactams
	"ertapenem", "invanz", "meropenem", "merrem", "imipenem", "primaxin", "aztreonam", "azactam",
	// macrolides, tetracyclines
	"azithromycin", "zithromax", "z-pak", "clarithromycin", "biaxin", "erythromycin",
	"doxycycline", "vibramycin", "minocycline", "minocin", "tetracycline", "tigecycline",
	// fluoroquinolones
	"ciprofloxacin", "cipro", "levofloxacin", "levaquin", "moxifloxacin", "avelox", "ofloxacin",
	// sulfonamides and urinary agents
	"sulfamethoxazole", "trimethoprim", "sulfamethoxazole-trimethoprim", "smz-tmp", "smx-tmp",
	"bactrim", "septra", "nitrofurantoin", "macrobid", "macrodantin", "fosfomycin", "monurol",
	"methenamine", "hiprex",
	// anaerobic, gram-positive, aminoglycosides, misc
	"metronidazole", "flagyl", "clindamycin", "cleocin", "vancomycin", "vancocin", "linezolid",
	"zyvox", "tedizolid", "daptomycin", "cubicin", "gentamicin", "tobramycin", "amikacin",
	"rifampin", "rifaximin", "xifaxan", "fidaxomicin", "dificid",
	// topicals
	"mupirocin", "bactroban", "silver sulfadiazine", "silvadene", "neomycin", "bacitracin",
	"polymyxin", "retapamulin",
	// antifungals
	"fluconazole", "diflucan", "nystatin", "clotrimazole", "terbinafine", "ketoconazole",
	"miconazole", "micafungin",
	// antivirals, antiparasitics
	"oseltamivir", "tamiflu", "acyclovir", "valacyclovir", "valtrex", "famciclovir",
	"paxlovid", "nirmatrelvir", "molnupiravir", "ivermectin", "permethrin",
}

// formKeywords are generic dosage forms.
var formKeywords = []string{
	"tablet", "tablets", "tab", "tabs", "capsule", "capsules", "caps", "solution", "suspension",
	"injection", "cream", "ointment", "powder", "gel", "drops", "suppository", "lotion", "syrup",
	"packet", "infusion", "elixir", "granules", "vial", "patch", "spray", "chewable",
}

// topicalForms imply a topical route when no route text is present.
var topicalForms = map[string]bool{"cream": true, "ointment": true, "lotion": true}

// instructionVerbs end a medication name.
var instructionVerbs = map[string]bool{
	"give": true, "use": true, "apply": true, "take": true, "inject": true,
	"instill": true, "insert": true, "infuse": true, "administer": true,
}

// nameDescriptors may follow a drug name inside the medication description.
var nameDescriptors = map[string]bool{
	"sodium": true, "sod": true, "potassium": true, "calcium": true, "hcl": true,
	"hydrochloride": true, "hyclate": true, "monohydrate": true, "monohyd": true,
	"macrocrystals": true, "macrocrystal": true, "macro": true, "mono": true,
	"proxetil": true, "axetil": true, "trihydrate": true, "clavulanate": true, "clav": true,
	"tazobactam": true, "sulbactam": true, "pivoxil": true, "phosphate": true, "succinate": true,
	"ethylsuccinate": true, "stearate": true, "estolate": true, "ds": true, "ss": true,
	"dr": true, "er": true, "xr": true, "oral": true, "in": true, "dextrose": true,
	"nacl": true, "premix": true, "piggyback": true, "and": true, "&": true, "w/": true,
	"reconstituted": true, "extended": true, "release": true, "delayed": true, "sulfate": true,
	"mesylate": true, "b": true, "ophthalmic": true, "topical": true, "external": true,
	"intravenous": true, "vaginal": true,
}

var (
	antibioticRe = wordAlternation(antibioticNames)
	formRe       = wordAlternation(formKeywords)
	strengthRe   = regexp.MustCompile(`(?i)^\(?\d+(?:\.\d+)?(?:-\d*\.?\d+)?(?:mg|mcg|g|gm|ml|%|units?)?(?:/\d*\.?\d*(?:mg|mcg|g|gm|ml))?\)?,?$`)
	unitTokenRe  = regexp.MustCompile(`(?i)^(?:mg|mcg|g|gm|ml|%|units?|mg/ml|mg/\d+ml|units?/ml|mcg/ml)[,)]?$`)
)

// wordAlternation compiles a case-insensitive, word-bounded alternation,
// longest entries first so combination products win over their components.
func wordAlternation(words []string) *regexp.Regexp {
	sorted := append([]string(nil), words...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(w), "-", `[\-/ ]`)
		quoted[i] = strings.ReplaceAll(quoted[i], ` `, `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// routeRule maps vocabulary onto a route code. reject, when set, vetoes a
// match (e.g. "Stage IV" is a wound stage, not a route).
type routeRule struct {
	code   string
	re     *regexp.Regexp
	reject func(line string, loc []int) bool
}

// routeRules are tried in order. Tube routes come first so "Oral Suspension
// via G-tube" resolves to the tube.
var routeRules = []routeRule{
	{code: RouteEnteralTube, re: regexp.MustCompile(`(?i)\b(?:g[\s\-]?tube|j[\s\-]?tube|peg(?:\s+tube)?|ng\s+tube|enteral(?:ly)?|per\s+tube|via\s+tube|feeding\s+tube)\b`)},
	{code: RouteOral, re: regexp.MustCompile(`(?i)\bby\s+mouth\b|\borally\b|\boral\b|\bPO\b`)},
	{code: RouteTopical, re: regexp.MustCompile(`(?i)\btopical(?:ly)?\b|\bto\s+(?:the\s+)?(?:skin|affected\s+areas?|wound|wound\s+bed)\b|\bexternal(?:ly)?\b`)},
	{code: RouteIntravenous, re: regexp.MustCompile(`(?i)\bintravenous(?:ly)?\b|\bIVPB\b|\bIV\b`), reject: isWoundStage},
	{code: RouteOphthalmic, re: regexp.MustCompile(`(?i)\bophthalmic\b|\bin\s+(?:both|left|right|each|affected)\s+eyes?\b|\beye\s+drops?\b`)},
	{code: RouteIntramuscular, re: regexp.MustCompile(`(?i)\bintramuscular(?:ly)?\b|\bIM\b`)},
	{code: RouteSubcutaneous, re: regexp.MustCompile(`(?i)\bsubcutaneous(?:ly)?\b|\bsub[\s\-]?q\b|\bSQ\b|\bSC\b`)},
}

func isWoundStage(line string, loc []int) bool {
	before := strings.ToLower(strings.TrimSpace(line[:loc[0]]))
	return strings.HasSuffix(before, "stage")
}

// sourceRule is one infection-source keyword set.
type sourceRule struct {
	source string
	re     *regexp.Regexp
}

var sourceRules = []sourceRule{
	{SourceUrinary, regexp.MustCompile(`(?i)\b(?:uti|utis|urinary|cystitis|pyelo\w*|bladder|cauti|urosepsis|foley|prostatitis|bacteriuria|dysuria|nitrofurantoin|macrobid|macrodantin|fosfomycin|methenamine)\b`)},
	{SourceRespiratory, regexp.MustCompile(`(?i)\b(?:pneumonia|pna|bronchitis|uri|urti|lrti|respiratory|copd|sinusitis|pharyngitis|strep\s+throat|influenza|flu|covid(?:-?19)?|lungs?|cough|aspiration)\b`)},
	{SourceGI, regexp.MustCompile(`(?i)\b(?:c\.?\s?-?diff(?:icile)?|cdiff|clostridi\w*|colitis|diarrh?ea|gastro\w*|h\.?\s?pylori|diverticulitis|intra-?abdominal|abdominal|cholecystitis|peritonitis|fidaxomicin|dificid)\b`)},
	{SourceSkin, regexp.MustCompile(`(?i)\b(?:cellulitis|wounds?|abscess|skin|soft\s+tissue|ssti|ulcers?|decubitus|pressure\s+(?:injury|ulcer)|impetigo|rash|erysipelas|paronychia|scabies)\b`)},
	{SourceBloodstream, regexp.MustCompile(`(?i)\b(?:bacteremia|sepsis|septicemia|blood\s*stream|bsi|clabsi|line\s+infection|endocarditis)\b`)},
}

// boilerplateRes match report furniture that carries no order data.
var boilerplateRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:user|time|date|run\s+date|report\s+date|print\s+date|printed(?:\s+(?:on|by))?|facility|page)\s*[:#]`),
	regexp.MustCompile(`(?i)^page\s+\d+(?:\s+of\s+\d+)?$`),
	regexp.MustCompile(`(?i)^printed\b`),
	regexp.MustCompile(`(?i)\b(?:order\s+listing|order\s+summary|medication\s+listing|physician\s+orders?|pharmacy\s+orders?)\s+report\b`),
	regexp.MustCompile(`(?i)^(?:pharmacological|therapeutic|medication|drug)\s+class(?:ification)?\s*:`),
	regexp.MustCompile(`(?i)^(?:anti-?infectives?|antibiotics?|antibacterials?|antifungals?|antivirals?|antimicrobials?)(?:\s*[-:/].*)?$`),
	regexp.MustCompile(`(?i)^(?:resident|order|description|directions)\b.*\bstart\s*date\b`),
}
