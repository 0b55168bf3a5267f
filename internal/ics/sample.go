package ics

// SampleFeed is a small known-good feed used as a fallback when every
// configured source fails. The dates are fixed so the daemon's fallback
// output is reproducible.
const SampleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//studycal//sample//EN
BEGIN:VEVENT
UID:sample-1@studycal
DTSTART;VALUE=DATE:20241215
SUMMARY:Math Homework 12
DESCRIPTION:Problem set chapters 4-5
END:VEVENT
BEGIN:VEVENT
UID:sample-2@studycal
DTSTART;VALUE=DATE:20241218
SUMMARY:Humanities Essay Draft
DESCRIPTION:First draft due
END:VEVENT
BEGIN:VEVENT
UID:sample-3@studycal
DTSTART;VALUE=DATE:20241220
SUMMARY:Physics Quiz
DESCRIPTION:Kinematics and forces
END:VEVENT
BEGIN:VEVENT
UID:sample-4@studycal
DTSTART;VALUE=DATE:20241222
SUMMARY:Spanish Project
DESCRIPTION:Presentation slides
END:VEVENT
BEGIN:VEVENT
UID:sample-5@studycal
DTSTART;VALUE=DATE:20241225
SUMMARY:Calculus Test Review
DESCRIPTION:Units 1-6
END:VEVENT
END:VCALENDAR
`

// SampleSource identifies the built-in fallback feed.
var SampleSource = Source{ID: "sample", Name: "Sample", URL: ""}
