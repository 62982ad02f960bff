package analysis

import "strings"

const foodPrompt = `Analyze this food image and provide a response in the following JSON format:
{
  "description": "A single sentence describing the food items visible",
  "macros": {
    "calories": number,
    "protein": number,
    "fat": number,
    "carbs": number
  }
}

Please be as accurate as possible with the nutritional estimates based on typical serving sizes. Return only the JSON object, no additional text.`

const homeworkPromptTemplate = `You are a professional elementary school math teacher. Please carefully analyze this math homework image and return ONLY a valid JSON object in the exact format below. Do not include any other text, markdown formatting, or explanations outside the JSON.

Required JSON format:
{
  "description": "Brief description of the homework in {{lang}}",
  "subject": "Subject name in {{lang}}",
  "isCorrect": boolean (true if all answers are correct),
  "completeness": number (0-100, percentage of questions completed),
  "logicCoherence": number (0-100, overall logic score),
  "knowledgeAreas": {
    "arithmetic": number (0-100, mastery level),
    "geometry": number (0-100, mastery level),
    "fractions": number (0-100, mastery level),
    "wordProblems": number (0-100, mastery level),
    "measurement": number (0-100, mastery level)
  },
  "weakPoints": ["weak area 1 in {{lang}}", "weak area 2 in {{lang}}"],
  "strengths": ["strength 1 in {{lang}}", "strength 2 in {{lang}}"],
  "errorAnalysis": "Overall error analysis in {{lang}}",
  "solutionApproach": "Solution approach suggestions in {{lang}}",
  "questions": [
    {
      "questionNumber": number,
      "questionText": "Question text in {{lang}}",
      "studentAnswer": "Student's answer",
      "isCorrect": boolean,
      "correctAnswer": "Correct answer (if wrong)",
      "explanation": "Detailed explanation in {{lang}} (if wrong)",
      "knowledgeArea": "Knowledge area in {{lang}}",
      "difficulty": "easy" | "medium" | "hard"
    }
  ],
  "totalQuestions": number,
  "correctQuestions": number,
  "weakKnowledgeAreas": ["weak knowledge area 1", "weak knowledge area 2"]
}

Instructions:
1. Identify each question and student answer in the image
2. Determine correctness for each question
3. For incorrect answers, provide detailed explanations and correct solutions in {{lang}}
4. Analyze weak knowledge areas
5. All text content should be in {{lang}}
6. Return ONLY the JSON object, no additional text or formatting`

// DefaultLanguage is used for homework prose when none is configured.
const DefaultLanguage = "English"

// FoodPrompt returns the instruction sent with every food image.
func FoodPrompt() string {
	return foodPrompt
}

// HomeworkPrompt returns the homework instruction with all prose fields
// requested in the given language.
func HomeworkPrompt(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultLanguage
	}
	return strings.ReplaceAll(homeworkPromptTemplate, "{{lang}}", language)
}
