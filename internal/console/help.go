package console

import (
	"fmt"
	"io"

	"github.com/stemsi/quickquiz-console/internal/model"
	"github.com/stemsi/quickquiz-console/internal/navigation"
)

func printAuthHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  login      sign in with email and password")
	fmt.Fprintln(out, "  register   create a teacher or student account")
	fmt.Fprintln(out, "  help       show this help")
	fmt.Fprintln(out, "  exit       quit")
}

func printHelp(out io.Writer, role model.Role, view navigation.View) {
	fmt.Fprintln(out, "Commands:")
	switch view.(type) {
	case navigation.HomeView:
		if role == model.RoleTeacher {
			fmt.Fprintln(out, "  courses                  list your courses")
			fmt.Fprintln(out, "  open <course_id>         open a course")
			fmt.Fprintln(out, "  new-course               register a course")
			fmt.Fprintln(out, "  delete-course <id>       delete a course and its quizzes")
		} else {
			fmt.Fprintln(out, "  courses                  list enrolled courses")
			fmt.Fprintln(out, "  available                list courses you can enroll in")
			fmt.Fprintln(out, "  enroll <course_id>       enroll in a course")
			fmt.Fprintln(out, "  unenroll <course_id>     leave a course")
			fmt.Fprintln(out, "  open <course_id>         open an enrolled course")
			fmt.Fprintln(out, "  results                  show your quiz results")
		}
	case navigation.CourseView:
		fmt.Fprintln(out, "  quizzes                  list quizzes")
		fmt.Fprintln(out, "  open <test_id>           open a quiz")
		if role == model.RoleTeacher {
			fmt.Fprintln(out, "  new-quiz                 create a draft quiz")
		} else {
			fmt.Fprintln(out, "  analytics                your performance in this course")
		}
	case navigation.QuizView:
		if role == model.RoleTeacher {
			fmt.Fprintln(out, "  show                     quiz details and questions")
			fmt.Fprintln(out, "  select <id>...|all       toggle question selection")
			fmt.Fprintln(out, "  add-question             write a question")
			fmt.Fprintln(out, "  generate                 generate questions automatically")
			fmt.Fprintln(out, "  delete-selected          delete the selected questions")
			fmt.Fprintln(out, "  publish [YYYY-MM-DD HH:MM] schedule the quiz (UTC)")
			fmt.Fprintln(out, "  extend <minutes>         change the duration, negative to shorten")
			fmt.Fprintln(out, "  analytics                score statistics and weakest topics")
		} else {
			fmt.Fprintln(out, "  show                     quiz details")
			fmt.Fprintln(out, "  start                    start or resume the attempt")
			fmt.Fprintln(out, "  analytics [attempt_id]   breakdown of a submitted attempt")
			fmt.Fprintln(out, "  review [attempt_id]      your answers question by question")
		}
	}
	fmt.Fprintln(out, "  back | home              navigate up")
	fmt.Fprintln(out, "  whoami | logout | exit")
}

func printAttemptHelp(out io.Writer) {
	fmt.Fprintln(out, "Attempt commands:")
	fmt.Fprintln(out, "  next | prev | goto <n>   move between questions")
	fmt.Fprintln(out, "  pick <option>...         choose an option (toggles for multi-select)")
	fmt.Fprintln(out, "  num <value>              answer a numeric question")
	fmt.Fprintln(out, "  show | list              current question, all answers")
	fmt.Fprintln(out, "  submit                   submit your answers")
	fmt.Fprintln(out, "  leave                    leave without submitting")
}
