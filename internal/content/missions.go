package content

func drawingMission(id int, value, hint string) Mission {
	return Mission{
		ID:          id,
		Title:       "Secret Drawing",
		Description: "Draw the secret word without making it obvious. Spies must blend in without knowing it.",
		Category:    CategoryDrawing,
		SecretFact:  SecretFact{Type: FactDrawing, Value: value, Hint: hint},
		Duration:    90,
	}
}

func orderingMission(id int, value, hint, criteria string, items []string) Mission {
	return Mission{
		ID:          id,
		Title:       "Secret Ranking",
		Description: "Order the items by the secret criterion. Agents know the order, spies have to guess it.",
		Category:    CategoryOrdering,
		SecretFact:  SecretFact{Type: FactOrdering, Value: value, Hint: hint, Items: items, Criteria: criteria},
		Duration:    90,
	}
}

func codeMission(id int, value, hint string) Mission {
	return Mission{
		ID:          id,
		Title:       "Numeric Code",
		Description: "Work the secret code into the conversation one digit at a time.",
		Category:    CategoryCode,
		SecretFact:  SecretFact{Type: FactCode, Value: value, Hint: hint},
		Duration:    90,
	}
}

func storyMission(id int, title, prompt, hint string) Mission {
	return Mission{
		ID:          id,
		Title:       "Collaborative Story",
		Description: "Continue the story one sentence each. Spies improvise without the opening line.",
		Category:    CategoryStory,
		SecretFact:  SecretFact{Type: FactStory, Value: title, Hint: hint, StoryTitle: title, StoryPrompt: prompt},
		Duration:    120,
	}
}

var allMissions = []Mission{
	drawingMission(101, "lighthouse on a cliff", "a coastal building"),
	drawingMission(102, "hot air balloon", "something that flies"),
	drawingMission(103, "robot walking a dog", "an unusual pet owner"),
	drawingMission(104, "pirate treasure map", "something sailors fight over"),
	drawingMission(105, "snowman in the desert", "someone out of place"),
	drawingMission(106, "rocket launch at night", "a loud departure"),
	drawingMission(107, "giant octopus playing drums", "a noisy sea creature"),
	drawingMission(108, "castle made of books", "a reader's fortress"),
	drawingMission(109, "train crossing a rainbow", "a colorful commute"),
	drawingMission(110, "penguin serving coffee", "a formal waiter"),

	orderingMission(201, "smallest to largest", "a size thing", "size",
		[]string{"Ant", "Cat", "Elephant", "Blue whale"}),
	orderingMission(202, "coldest to hottest", "a temperature thing", "temperature",
		[]string{"Antarctica", "London", "Cairo", "Lava"}),
	orderingMission(203, "oldest to newest", "an age thing", "age",
		[]string{"Pyramids", "Colosseum", "Eiffel Tower", "Burj Khalifa"}),
	orderingMission(204, "slowest to fastest", "a speed thing", "speed",
		[]string{"Tortoise", "Human", "Horse", "Cheetah"}),
	orderingMission(205, "cheapest to priciest", "a price thing", "price",
		[]string{"Chewing gum", "Pizza", "Smartphone", "Car"}),
	orderingMission(206, "lightest to heaviest", "a weight thing", "weight",
		[]string{"Feather", "Apple", "Brick", "Piano"}),
	orderingMission(207, "quietest to loudest", "a volume thing", "volume",
		[]string{"Whisper", "Conversation", "Scream", "Thunder"}),
	orderingMission(208, "closest to farthest from the sun", "a distance thing", "distance from the sun",
		[]string{"Mercury", "Earth", "Jupiter", "Neptune"}),

	codeMission(301, "4812", "starts even"),
	codeMission(302, "9037", "contains a zero"),
	codeMission(303, "2764", "all digits differ"),
	codeMission(304, "5590", "has a double"),
	codeMission(305, "1348", "ascending-ish"),
	codeMission(306, "8621", "descending-ish"),

	storyMission(401, "The Last Train Home", "The platform was empty except for a suitcase nobody claimed.", "a late-night journey"),
	storyMission(402, "The Lighthouse Keeper's Secret", "Every night at midnight, the light blinked twice instead of once.", "a coastal mystery"),
	storyMission(403, "Breakfast on Mars", "The toaster was the first appliance to notice something was wrong.", "an off-world morning"),
	storyMission(404, "The Museum That Closed at Noon", "The curator locked the doors early for the third day in a row.", "an institutional oddity"),
	storyMission(405, "A Letter Addressed to No One", "The envelope had a stamp from a country that does not exist.", "undeliverable mail"),
	storyMission(406, "The Orchestra's Empty Chair", "The second violin never showed, but her part kept playing.", "a musical absence"),
}
