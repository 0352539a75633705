package prompt

import "text/template"

const classifyText = `You are an intent classifier for a travel assistant. Classify the user's message into exactly one of these labels: greeting, bus, flight, hotel, attractions, itinerary, unknown. Rules: respond with ONLY the label, lowercase, no punctuation.
Message: {{.Message}}`

const greetingText = `System: You are a friendly Indian travel assistant. If the user's text is a greeting, reply concisely with warmth. Adapt tone to sentiment ({{.Sentiment}}: positive/neutral/negative). Offer brief next-step help.
User: {{.Message}}`

const extractRouteText = `Extract parameters from the user's query about {{.Subject}} travel. Return ONLY a valid JSON object with these exact keys: source, destination, budget. If a parameter is not mentioned, use null for that key. For budget, extract the numeric value (remove currency symbols and commas). Return only the JSON, no additional text or explanation.

User query: {{.Message}}

JSON:`

const extractHotelText = `Extract parameters from the user's query about hotels. Return ONLY a valid JSON object with these exact keys: city, budget. If a parameter is not mentioned, use null for that key. For budget, extract the numeric value (remove currency symbols and commas). Consider values greater than 1000. If no budget is mentioned, return 2500 for the budget key. Return only the JSON, no additional text or explanation.

User query: {{.Message}}

JSON:`

const extractAttractionText = `Extract parameters from the user's query about attractions or places to visit. Return ONLY a valid JSON object with this exact key: city. If city is not mentioned, use null. Return only the JSON, no additional text or explanation.

User query: {{.Message}}

JSON:`

const extractItineraryText = `Extract parameters from the user's query about planning an itinerary. Return ONLY a valid JSON object with these exact keys: source, destination, budget, num_days. If a parameter is not mentioned, use null for that key. For budget, extract the numeric value (remove currency symbols and commas). For num_days, extract the number of days (default to 3 if not mentioned). Return only the JSON, no additional text or explanation.

User query: {{.Message}}

JSON:`

const busesText = `System: Use ONLY the bus options provided. Write a short creative paragraph that reads naturally, mentioning 3-5 options with bus type, departure_time if available, travel duration, price (₹), rating, and route. Close with a friendly travel tip.
Context (top {{.K}} buses under budget ₹{{.Budget}}):
{{.Rows}}
User: {{.Question}}`

const flightsText = `System: Use ONLY the flights provided. Write a concise, engaging paragraph that mentions 3-5 options, including airline, class, dep_time if available, time_taken, price (₹), and route. Keep the order as given.
Context (top {{.K}} flights under budget ₹{{.Budget}}):
{{.Rows}}
User: {{.Question}}`

const hotelsText = `System: Recommend hotels strictly from the list. Write a short narrative describing 3-5 good fits with hotel_name, price per night (₹), rating, and city. End with a brief note about dynamic pricing.
Context (top {{.K}} hotels under budget ₹{{.Budget}}):
{{.Rows}}
User: {{.Question}}`

const attractionsText = `System: Suggest places to visit in the city using only the items below. Write a lively paragraph highlighting up to 5 spots: attraction, category, a one-line description, and 1-2 activities. Mention best_time if available.
Context:
{{.Rows}}
User: {{.Question}}`

const itineraryText = `System: Create a practical, inspiring {{.NumDays}}-day itinerary for {{.Destination}}, starting from {{.Source}} with a total budget of ₹{{.Budget}}. Use only the provided travel options, hotels, and attractions. Structure your response as follows:

1. OUTBOUND TRAVEL: Show both bus and flight options from {{.Source}} to {{.Destination}} within budget
2. HOTELS: Recommend hotels in {{.Destination}} within budget
3. DAY-WISE ITINERARY: Plan {{range $i, $d := .Days}}{{if $i}}, {{end}}day {{$d}}{{end}} with one attraction per day from the provided list
4. RETURN JOURNEY: Show bus and flight options from {{.Destination}} back to {{.Source}} within budget

Outbound travel options (bus):
{{.BusRows}}
Outbound travel options (flight):
{{.FlightRows}}
Hotels:
{{.HotelRows}}
Attractions (one per day):
{{.AttractionRows}}
Return journey buses:
{{.ReturnBusRows}}
Return journey flights:
{{.ReturnFlightRows}}
User: {{.Question}}`

var (
	classifyTmpl          = template.Must(template.New("classify").Parse(classifyText))
	greetingTmpl          = template.Must(template.New("greeting").Parse(greetingText))
	extractRouteTmpl      = template.Must(template.New("extract_route").Parse(extractRouteText))
	extractHotelTmpl      = template.Must(template.New("extract_hotel").Parse(extractHotelText))
	extractAttractionTmpl = template.Must(template.New("extract_attraction").Parse(extractAttractionText))
	extractItineraryTmpl  = template.Must(template.New("extract_itinerary").Parse(extractItineraryText))
	busesTmpl             = template.Must(template.New("buses").Parse(busesText))
	flightsTmpl           = template.Must(template.New("flights").Parse(flightsText))
	hotelsTmpl            = template.Must(template.New("hotels").Parse(hotelsText))
	attractionsTmpl       = template.Must(template.New("attractions").Parse(attractionsText))
	itineraryTmpl         = template.Must(template.New("itinerary").Parse(itineraryText))
)
