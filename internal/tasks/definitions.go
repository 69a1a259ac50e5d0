package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	// Pool lifecycle maintenance
	RegisterHandler(ExpirePoolsTask.TaskID(), ExpirePoolsTask.HandleExecution)
	RegisterHandler(ReconcilePoolCountsTask.TaskID(), ReconcilePoolCountsTask.HandleExecution)

	// Member notifications
	RegisterHandler(NotifyPoolReadyTask.TaskID(), NotifyPoolReadyTask.HandleExecution)
}
