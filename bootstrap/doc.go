// Package bootstrap runs a wavechat binary through one lifecycle: validate
// config, start components, run hooks, run the task, stop everything in
// reverse order.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(handles)
//	app.RegisterComponent(controller)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return ui.Run(ctx)
//	})
//
// SIGINT and SIGTERM cancel the task context.
package bootstrap
