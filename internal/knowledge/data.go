package knowledge

// GlobalRegion is the permissive sentinel region. It imposes no regional
// constraint on matches and its catalog doubles as the fallback source of
// last resort for region-specific searches.
const GlobalRegion = "Global"

// defaultCategory is assigned when no topic keyword matches.
const defaultCategory = "Science & Technology"

// defaultData returns the built-in curated tables. Declaration order is load
// bearing throughout: keyword tables resolve first-hit-wins, category order
// decides which category a persona is reported under, and the famous-persona
// lists are priority ordered.
func defaultData() CatalogData {
	return CatalogData{
		Regions:         defaultRegions(),
		TopicKeywords:   defaultTopicKeywords(),
		TopicExperts:    defaultTopicExperts(),
		SynonymGroups:   defaultSynonymGroups(),
		FamousByRegion:  defaultFamousByRegion(),
		FamousPersonas:  defaultFamousPersonas(),
		DefaultCategory: defaultCategory,
	}
}

func defaultRegions() []RegionCatalog {
	return []RegionCatalog{
		{
			Name: "India",
			Categories: []CategoryList{
				{Name: "Science & Technology", Personas: []string{"Jagadish Chandra Bose", "C.V. Raman", "Vikram Sarabhai", "Homi Bhabha"}},
				{Name: "Mathematics", Personas: []string{"Srinivasa Ramanujan", "Aryabhata"}},
				{Name: "Philosophy & Spirituality", Personas: []string{"Ramakrishna Paramahamsa", "Jiddu Krishnamurti", "Swami Vivekananda"}},
				{Name: "Business & Entrepreneurship", Personas: []string{"Ratan Tata", "Mukesh Ambani", "Narayana Murthy"}},
				{Name: "Medicine", Personas: []string{"Sushruta", "Charaka"}},
				{Name: "Literature", Personas: []string{"Rabindranath Tagore", "Premchand"}},
				{Name: "Politics", Personas: []string{"Mahatma Gandhi", "Jawaharlal Nehru", "Dr. Ambedkar"}},
				{Name: "Sports", Personas: []string{"Sachin Tendulkar", "Virat Kohli"}},
				{Name: "Arts", Personas: []string{"Raja Ravi Varma"}},
				{Name: "Astronomy", Personas: []string{"Aryabhata", "Bhaskara II"}},
			},
		},
		{
			Name: "United States",
			Categories: []CategoryList{
				{Name: "Science & Technology", Personas: []string{"Albert Einstein", "Isaac Newton", "Stephen Hawking", "Richard Feynman"}},
				{Name: "Computer Science", Personas: []string{"Alan Turing", "Grace Hopper", "Steve Jobs", "Bill Gates"}},
				{Name: "Physics", Personas: []string{"Richard Feynman", "J. Robert Oppenheimer", "Enrico Fermi"}},
				{Name: "Business & Entrepreneurship", Personas: []string{"Warren Buffett", "Elon Musk", "Steve Jobs", "Jeff Bezos"}},
				{Name: "Literature", Personas: []string{"Mark Twain", "Ernest Hemingway", "F. Scott Fitzgerald"}},
				{Name: "Medicine", Personas: []string{"Jonas Salk", "Louis Pasteur"}},
				{Name: "Psychology", Personas: []string{"Carl Rogers", "B.F. Skinner"}},
				{Name: "Sports", Personas: []string{"Michael Jordan", "Muhammad Ali"}},
				{Name: "Music", Personas: []string{"Duke Ellington", "Louis Armstrong"}},
			},
		},
		{
			Name: "United Kingdom",
			Categories: []CategoryList{
				{Name: "Science & Technology", Personas: []string{"Isaac Newton", "Stephen Hawking", "Alan Turing"}},
				{Name: "Literature", Personas: []string{"William Shakespeare", "Jane Austen", "Charles Dickens"}},
				{Name: "Physics", Personas: []string{"Michael Faraday", "Paul Dirac"}},
				{Name: "Medicine", Personas: []string{"Edward Jenner", "Florence Nightingale"}},
				{Name: "Philosophy", Personas: []string{"David Hume", "Bertrand Russell"}},
				{Name: "Economics", Personas: []string{"Adam Smith", "John Maynard Keynes"}},
				{Name: "Biology", Personas: []string{"Charles Darwin", "Joseph Banks"}},
			},
		},
		{
			Name: "Germany",
			Categories: []CategoryList{
				{Name: "Science & Technology", Personas: []string{"Albert Einstein", "Max Planck", "Werner Heisenberg"}},
				{Name: "Philosophy", Personas: []string{"Immanuel Kant", "Georg Hegel", "Friedrich Nietzsche"}},
				{Name: "Music", Personas: []string{"Johann Sebastian Bach", "Ludwig van Beethoven", "Richard Wagner"}},
				{Name: "Physics", Personas: []string{"Max Born", "Erwin Schrödinger"}},
				{Name: "Literature", Personas: []string{"Johann Wolfgang von Goethe", "Thomas Mann"}},
				{Name: "Psychology", Personas: []string{"Sigmund Freud", "Carl Jung"}},
			},
		},
		{
			Name: "France",
			Categories: []CategoryList{
				{Name: "Science & Technology", Personas: []string{"Pierre Curie", "Marie Curie", "Louis Pasteur"}},
				{Name: "Philosophy", Personas: []string{"René Descartes", "Jean-Paul Sartre", "Michel Foucault"}},
				{Name: "Literature", Personas: []string{"Victor Hugo", "Alexandre Dumas", "Marcel Proust"}},
				{Name: "Mathematics", Personas: []string{"Henri Poincaré", "Évariste Galois"}},
				{Name: "Art", Personas: []string{"Leonardo da Vinci", "Vincent van Gogh"}},
			},
		},
		{
			Name: "Japan",
			Categories: []CategoryList{
				{Name: "Science & Technology", Personas: []string{"Yoshiro Nakamatsu", "Akira Yoshino"}},
				{Name: "Philosophy", Personas: []string{"Masao Abe", "Kitaro Nishida"}},
				{Name: "Literature", Personas: []string{"Haruki Murakami", "Yasunari Kawabata"}},
				{Name: "Martial Arts", Personas: []string{"Gichin Funakoshi", "Jigoro Kano"}},
				{Name: "Art & Design", Personas: []string{"Katsushika Hokusai"}},
			},
		},
		{
			Name: "China",
			Categories: []CategoryList{
				{Name: "Science & Technology", Personas: []string{"Tu Youyou"}},
				{Name: "Philosophy", Personas: []string{"Confucius", "Laozi", "Zhuangzi"}},
				{Name: "Medicine", Personas: []string{"Hua Tuo", "Li Shizhen"}},
				{Name: "Martial Arts", Personas: []string{"Bruce Lee"}},
				{Name: "Literature", Personas: []string{"Luo Guanzhong"}},
				{Name: "Art", Personas: []string{"Zhang Daqian"}},
			},
		},
		{
			Name: GlobalRegion,
			Categories: []CategoryList{
				{Name: "Science & Technology", Personas: []string{"Albert Einstein", "Isaac Newton", "Marie Curie"}},
				{Name: "Philosophy", Personas: []string{"Plato", "Aristotle", "Socrates"}},
				{Name: "Business", Personas: []string{"Peter Drucker", "Jack Welch"}},
				{Name: "Psychology", Personas: []string{"Sigmund Freud", "Carl Jung", "Abraham Maslow"}},
				{Name: "Economics", Personas: []string{"Adam Smith", "Thomas Piketty"}},
			},
		},
	}
}

func defaultTopicKeywords() []TopicKeyword {
	return []TopicKeyword{
		{Keyword: "python", Category: "Computer Science"},
		{Keyword: "programming", Category: "Computer Science"},
		{Keyword: "coding", Category: "Computer Science"},
		{Keyword: "web development", Category: "Computer Science"},
		{Keyword: "machine learning", Category: "Computer Science"},
		{Keyword: "ai", Category: "Computer Science"},
		{Keyword: "artificial intelligence", Category: "Computer Science"},
		{Keyword: "data science", Category: "Computer Science"},
		{Keyword: "physics", Category: "Science & Technology"},
		{Keyword: "quantum", Category: "Science & Technology"},
		{Keyword: "relativity", Category: "Science & Technology"},
		{Keyword: "astronomy", Category: "Astronomy"},
		{Keyword: "mathematics", Category: "Mathematics"},
		{Keyword: "business", Category: "Business & Entrepreneurship"},
		{Keyword: "entrepreneurship", Category: "Business & Entrepreneurship"},
		{Keyword: "startup", Category: "Business & Entrepreneurship"},
		{Keyword: "psychology", Category: "Psychology"},
		{Keyword: "mental health", Category: "Psychology"},
		{Keyword: "philosophy", Category: "Philosophy"},
		{Keyword: "literature", Category: "Literature"},
		{Keyword: "medicine", Category: "Medicine"},
		{Keyword: "health", Category: "Medicine"},
		{Keyword: "sports", Category: "Sports"},
		{Keyword: "music", Category: "Music"},
		{Keyword: "art", Category: "Arts"},
	}
}

func defaultTopicExperts() []TopicExperts {
	return []TopicExperts{
		// Technology and programming
		{Keyword: "python", Experts: []string{"Guido van Rossum", "Peter Norvig", "Wes McKinney"}},
		{Keyword: "javascript", Experts: []string{"Brendan Eich", "Douglas Crockford", "Ryan Dahl"}},
		{Keyword: "java", Experts: []string{"James Gosling", "Joshua Bloch", "Martin Fowler"}},
		{Keyword: "ai", Experts: []string{"Geoffrey Hinton", "Yann LeCun", "Andrew Ng"}},
		{Keyword: "machine learning", Experts: []string{"Andrew Ng", "Yoshua Bengio", "Fei-Fei Li"}},
		{Keyword: "web development", Experts: []string{"Tim Berners-Lee", "Marc Andreessen", "Brendan Eich"}},
		{Keyword: "mobile apps", Experts: []string{"Andy Rubin", "Steve Jobs", "Tim Cook"}},

		// Science and inventions
		{Keyword: "electricity", Experts: []string{"Thomas Edison", "Nikola Tesla", "Michael Faraday"}},
		{Keyword: "bulb", Experts: []string{"Thomas Edison", "Nikola Tesla", "Joseph Swan"}},
		{Keyword: "light", Experts: []string{"Thomas Edison", "Albert Einstein", "James Clerk Maxwell"}},
		{Keyword: "physics", Experts: []string{"Albert Einstein", "Isaac Newton", "Richard Feynman"}},
		{Keyword: "chemistry", Experts: []string{"Marie Curie", "Dmitri Mendeleev", "Linus Pauling"}},
		{Keyword: "biology", Experts: []string{"Charles Darwin", "Gregor Mendel", "James Watson"}},
		{Keyword: "space", Experts: []string{"Neil deGrasse Tyson", "Carl Sagan", "Stephen Hawking"}},

		// Business and entrepreneurship
		{Keyword: "startup", Experts: []string{"Paul Graham", "Sam Altman", "Eric Ries"}},
		{Keyword: "business", Experts: []string{"Peter Drucker", "Warren Buffett", "Jack Welch"}},
		{Keyword: "marketing", Experts: []string{"Seth Godin", "Philip Kotler", "Gary Vaynerchuk"}},
		{Keyword: "investment", Experts: []string{"Warren Buffett", "Charlie Munger", "Benjamin Graham"}},

		// Mathematics
		{Keyword: "mathematics", Experts: []string{"Albert Einstein", "Isaac Newton", "Srinivasa Ramanujan"}},
		{Keyword: "calculus", Experts: []string{"Isaac Newton", "Gottfried Leibniz", "Leonhard Euler"}},
		{Keyword: "statistics", Experts: []string{"Ronald Fisher", "Karl Pearson", "Florence Nightingale"}},

		// Philosophy and psychology
		{Keyword: "philosophy", Experts: []string{"Socrates", "Plato", "Aristotle"}},
		{Keyword: "psychology", Experts: []string{"Sigmund Freud", "Carl Jung", "B.F. Skinner"}},
		{Keyword: "mindfulness", Experts: []string{"Dalai Lama", "Thich Nhat Hanh", "Eckhart Tolle"}},

		// Mental health and wellness
		{Keyword: "mental health", Experts: []string{"Sigmund Freud", "Carl Jung", "Viktor Frankl"}},
		{Keyword: "therapy", Experts: []string{"Carl Rogers", "Aaron Beck", "Albert Ellis"}},
		{Keyword: "depression", Experts: []string{"Aaron Beck", "Martin Seligman", "Kay Redfield Jamison"}},
		{Keyword: "anxiety", Experts: []string{"David Burns", "Claire Weekes", "Edmund Bourne"}},
		{Keyword: "meditation", Experts: []string{"Dalai Lama", "Jon Kabat-Zinn", "Thich Nhat Hanh"}},
		{Keyword: "wellness", Experts: []string{"Deepak Chopra", "Andrew Weil", "Brené Brown"}},
		{Keyword: "self-help", Experts: []string{"Tony Robbins", "Dale Carnegie", "Stephen Covey"}},
	}
}

func defaultSynonymGroups() []SynonymGroup {
	return []SynonymGroup{
		{Keywords: []string{"mental", "health", "therapy", "counseling", "psychiatric"}, Experts: []string{"Sigmund Freud", "Carl Jung", "Viktor Frankl"}},
		{Keywords: []string{"depression", "anxiety", "stress", "trauma"}, Experts: []string{"Aaron Beck", "Martin Seligman", "Bessel van der Kolk"}},
		{Keywords: []string{"meditation", "mindfulness", "zen", "spiritual"}, Experts: []string{"Dalai Lama", "Jon Kabat-Zinn", "Thich Nhat Hanh"}},
		{Keywords: []string{"programming", "coding", "software", "developer"}, Experts: []string{"Linus Torvalds", "Guido van Rossum", "Dennis Ritchie"}},
		{Keywords: []string{"ai", "artificial", "intelligence", "machine", "learning"}, Experts: []string{"Geoffrey Hinton", "Yann LeCun", "Andrew Ng"}},
		{Keywords: []string{"physics", "quantum", "relativity", "universe"}, Experts: []string{"Albert Einstein", "Richard Feynman", "Stephen Hawking"}},
		{Keywords: []string{"biology", "evolution", "genetics", "dna"}, Experts: []string{"Charles Darwin", "James Watson", "Francis Crick"}},
		{Keywords: []string{"chemistry", "chemical", "molecule", "atom"}, Experts: []string{"Marie Curie", "Linus Pauling", "Dmitri Mendeleev"}},
		{Keywords: []string{"business", "entrepreneur", "startup", "company"}, Experts: []string{"Peter Drucker", "Steve Jobs", "Warren Buffett"}},
		{Keywords: []string{"marketing", "sales", "advertising", "brand"}, Experts: []string{"Seth Godin", "Philip Kotler", "Gary Vaynerchuk"}},
		{Keywords: []string{"leadership", "management", "team", "organization"}, Experts: []string{"Simon Sinek", "Peter Drucker", "Jim Collins"}},
	}
}

func defaultFamousByRegion() map[string][]string {
	return map[string][]string{
		GlobalRegion:     {"Albert Einstein", "Isaac Newton", "Leonardo da Vinci", "Marie Curie", "Nikola Tesla"},
		"India":          {"A.P.J. Abdul Kalam", "Ratan Tata", "Sundar Pichai", "Satya Nadella", "Chanakya", "Swami Vivekananda", "Srinivasa Ramanujan", "C.V. Raman"},
		"United States":  {"Elon Musk", "Steve Jobs", "Bill Gates", "Jeff Bezos", "Warren Buffett", "Benjamin Franklin", "Thomas Edison"},
		"United Kingdom": {"Stephen Hawking", "Alan Turing", "Isaac Newton", "Charles Darwin", "Tim Berners-Lee", "Winston Churchill"},
		"China":          {"Jack Ma", "Confucius", "Lei Jun", "Robin Li", "Pony Ma"},
		"Japan":          {"Akio Morita", "Masayoshi Son", "Hayao Miyazaki", "Satoshi Tajiri"},
		"Germany":        {"Albert Einstein", "Werner Heisenberg", "Max Planck", "Karl Benz"},
		"France":         {"Marie Curie", "Louis Pasteur", "Blaise Pascal", "René Descartes"},
		"Canada":         {"Geoffrey Hinton", "Yoshua Bengio", "Marshall McLuhan"},
		"Australia":      {"Steve Irwin", "Hugh Jackman", "Nicole Kidman"},
		"Brazil":         {"Paulo Coelho", "Ayrton Senna", "Pelé"},
		"Russia":         {"Dmitri Mendeleev", "Mikhail Lomonosov", "Sergey Brin"},
		"South Korea":    {"Ban Ki-moon", "Lee Kun-hee"},
		"Italy":          {"Leonardo da Vinci", "Galileo Galilei", "Enrico Fermi"},
		"Spain":          {"Pablo Picasso", "Salvador Dalí", "Antoni Gaudí"},
		"Mexico":         {"Frida Kahlo", "Octavio Paz", "Carlos Slim"},
		"Netherlands":    {"Vincent van Gogh", "Christiaan Huygens"},
		"Switzerland":    {"Albert Einstein", "Carl Jung", "Jean Piaget"},
		"Sweden":         {"Alfred Nobel", "Ingvar Kamprad", "Greta Thunberg"},
		"South Africa":   {"Nelson Mandela", "Elon Musk", "Desmond Tutu"},
		"Argentina":      {"Jorge Luis Borges", "Lionel Messi"},
		"Poland":         {"Marie Curie", "Nicolaus Copernicus"},
		"Turkey":         {"Rumi", "Mustafa Kemal Atatürk"},
		"Indonesia":      {"B.J. Habibie", "Soekarno"},
		"Saudi Arabia":   {"Ibn Sina (Avicenna)", "Al-Khwarizmi"},
		"Egypt":          {"Naguib Mahfouz", "Cleopatra"},
		"Israel":         {"Albert Einstein", "Shimon Peres"},
		"Singapore":      {"Lee Kuan Yew"},
		"Malaysia":       {"Mahathir Mohamad"},
		"Thailand":       {"Bhumibol Adulyadej"},
		"Philippines":    {"José Rizal", "Manny Pacquiao"},
		"Vietnam":        {"Ho Chi Minh"},
		"Pakistan":       {"Malala Yousafzai", "Abdus Salam"},
		"Bangladesh":     {"Muhammad Yunus", "Rabindranath Tagore"},
		"Nigeria":        {"Chinua Achebe", "Wole Soyinka"},
		"Kenya":          {"Wangari Maathai"},
		"Ghana":          {"Kofi Annan"},
		"Ireland":        {"James Joyce", "Oscar Wilde"},
		"New Zealand":    {"Ernest Rutherford"},
		"Norway":         {"Edvard Munch", "Roald Amundsen"},
		"Denmark":        {"Niels Bohr", "Hans Christian Andersen"},
		"Finland":        {"Linus Torvalds"},
		"Austria":        {"Sigmund Freud", "Wolfgang Amadeus Mozart"},
		"Belgium":        {"Georges Lemaître"},
		"Greece":         {"Socrates", "Plato", "Aristotle"},
		"Portugal":       {"Cristiano Ronaldo", "José Saramago"},
		"Czech Republic": {"Václav Havel"},
		"Chile":          {"Pablo Neruda"},
		"Colombia":       {"Gabriel García Márquez"},
		"Peru":           {"Mario Vargas Llosa"},
	}
}

func defaultFamousPersonas() []string {
	return []string{
		"Elon Musk", "Jeff Bezos", "Steve Jobs", "Bill Gates", "Warren Buffett",
		"Albert Einstein", "Isaac Newton", "Marie Curie", "Stephen Hawking", "Nikola Tesla",
		"Naval Ravikant", "Sam Altman", "Mark Zuckerberg", "Sundar Pichai",
		"Chanakya", "A.P.J. Abdul Kalam", "Swami Vivekananda", "Satya Nadella",
		"Richard Feynman", "Carl Sagan", "Neil deGrasse Tyson",
	}
}
