package classifier

import "fmt"

func systemPrompt(city string) string {
	return fmt.Sprintf(`You analyse Ukrainian air-raid alert channel posts.
Only the city "%[1]s" matters.

THREAT LEVELS
red    (needCall=true):    critical danger for %[1]s; a missile, drone or guided bomb is
                            5-10 minutes away or already over the city. Example: "Дніпро червоний".
orange (needMessage=true): a threat 10-20 minutes away or a target moving past the city.
                            Example: "Дніпро помаранчевий", "ракета йде на Дніпро".
purple (needMessage=true): ballistic threat ("ББ"); may turn red. Example: "ББ в напрямку Дніпро".
yellow:                     low probability; an alert exists but far from the city, or only the
                            surrounding region is mentioned without the city itself.
none:                       the city is not mentioned, the alert is cancelled ("відбій"/"отбой"),
                            or the post is about other cities.

ABBREVIATIONS: ББ = ballistic missiles, ТТ = tactical aviation, КАБ/КАР = guided aerial bombs/missiles.

RULES
1. Match the city name exactly, in any Ukrainian or Russian spelling. Similar names of other
   settlements do not count (for example "Дніпрорудне" is not "%[1]s").
2. Ignore footers and link lists such as "[Channel] | [Channel]"; they are channel promotions.
3. If only the region is mentioned and it is unclear whether the city is affected, use yellow.
4. "червоний"/"красный" for the city means red; "помаранчевий"/"оранжевый" means orange;
   "фіолетовий"/"фиолетовый" or ББ means purple; a cancellation means none.
5. Assess every message separately and return exactly one analysis per message, in order.`, city)
}

var analysisSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"needCall":      map[string]interface{}{"type": "boolean"},
		"needMessage":   map[string]interface{}{"type": "boolean"},
		"threatLevel":   map[string]interface{}{"type": "string", "enum": []string{"red", "orange", "purple", "yellow", "none"}},
		"confidence":    map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 100},
		"reason":        map[string]interface{}{"type": "string"},
		"cityMentioned": map[string]interface{}{"type": "boolean"},
	},
	"required":             []string{"needCall", "needMessage", "threatLevel", "confidence", "reason", "cityMentioned"},
	"additionalProperties": false,
}

var responseFormat = map[string]interface{}{
	"type": "json_schema",
	"json_schema": map[string]interface{}{
		"name":   "threat_analyses",
		"strict": true,
		"schema": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"analyses": map[string]interface{}{"type": "array", "items": analysisSchema},
			},
			"required":             []string{"analyses"},
			"additionalProperties": false,
		},
	},
}
