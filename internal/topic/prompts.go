package topic

import "fmt"

// analyzePrompt asks for the subject, topic and subtopics of text.
func analyzePrompt(text string) string {
	return fmt.Sprintf(`Analyze the following text and identify what it is mainly about.

Text: "%s"

Classify the dominant subject as one of Programming, Science, Maths or Miscellaneous, name the dominant topic, and list 3 to 5 subtopics a learner should study to cover it.

Respond with a single JSON object and nothing else:
{"dominant_subject": "Programming|Science|Maths|Miscellaneous", "dominant_topic": "specific topic name", "subtopics": ["subtopic1", "subtopic2", "subtopic3", "subtopic4", "subtopic5"]}`, text)
}

// strictPrompt is sent once when the first reply was conversational.
func strictPrompt(text string) string {
	return fmt.Sprintf(`IMPORTANT: You must respond ONLY with a JSON object. Do not include any other text.

Analyze this specific text: "%s"

Return only this JSON format:
{"dominant_subject": "Programming|Science|Maths|Miscellaneous", "dominant_topic": "specific topic name", "subtopics": ["subtopic1", "subtopic2", "subtopic3", "subtopic4", "subtopic5"]}`, text)
}

// OutlinePrompt builds the course outline request for input.
func OutlinePrompt(input string) string {
	t := ExtractTopic(input)
	return fmt.Sprintf(`Develop a comprehensive course on the topic "%[1]s". The duration of the course will be determined based on optimal learning conditions, ranging from %[2]d to %[3]d days. Each day should be divided into %[4]d modules.

Design the course with the following components in a valid JSON structure:
{
  "name": "Short Course Name",
  "domain": "Subject Area (e.g., Programming, Science, Math, etc.)",
  "numberofdays": 5,
  "Introduction": ["Brief introduction to the course and its objectives"],
  "modules": [
    {"day": 1, "title": "Fundamentals"},
    {"day": 2, "title": "Core Concepts"}
  ],
  "Day 1": ["Module 1: Introduction", "Module 2: Basic Concepts", "Module 3: Getting Started"],
  "Day 2": ["Module 1: Core Principles", "Module 2: Key Techniques", "Module 3: Problem Solving"],
  "YouTubeReferences": [
    {"title": "Introduction to %[1]s", "url": "https://www.youtube.com/watch?v=example1"}
  ],
  "assessments": [
    {"type": "quiz", "title": "Final Quiz", "description": "What the learner should be able to answer"}
  ]
}

Ensure that:
1. The course name is short and descriptive
2. The JSON structure is valid
3. YouTube references contain relevant educational videos
4. There is one "Day N" list for every day of the course
5. The course structure covers all necessary concepts`, t, MinDays, MaxDays, ModulesPerDay)
}
